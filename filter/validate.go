package filter

import (
	stderrors "errors"
	"io"

	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/jsonseq"
	"github.com/kbukum/tilefilter/tile"
)

// ContextLimit is how many characters of an offending value are quoted in
// a protocol error.
const ContextLimit = 500

const featureType = "Feature"

type readStats struct {
	values   int
	skipped  int
	features int
}

// readLayer consumes filter output from r until EOF, rebuilding a layer
// shaped like template from the Features found.
func readLayer(r io.Reader, template *mvt.Layer, addr tile.Address) (*mvt.Layer, readStats, error) {
	var st readStats
	values := jsonseq.NewReader(r)
	b := tile.NewBuilder(template, addr)
	for {
		v, err := values.Next()
		if err == io.EOF {
			st.features = b.Len()
			return b.Layer(), st, nil
		}
		if err != nil {
			var syntaxErr *jsonseq.SyntaxError
			if stderrors.As(err, &syntaxErr) {
				return nil, st, errors.Protocol(errors.ErrCodeSyntax, syntaxErr.Line, syntaxErr.Err.Error(), "").WithCause(err)
			}
			return nil, st, errors.Resource("read", "from-filter pipe", err)
		}
		st.values++

		f, err := decodeFeature(v)
		if err != nil {
			return nil, st, err
		}
		if f == nil {
			st.skipped++
			continue
		}
		b.Add(f)
	}
}

// decodeFeature validates v as a Feature. It returns nil, nil for values
// that are not Features at all.
func decodeFeature(v jsonseq.Value) (*geojson.Feature, error) {
	fail := func(code errors.ErrorCode, msg string) *errors.AppError {
		return errors.Protocol(code, v.Line(), msg, v.Render(ContextLimit))
	}
	if v.Kind() == jsonseq.Invalid {
		return nil, fail(errors.ErrCodeSyntax, "malformed JSON value")
	}

	members, ok := v.Members()
	if !ok {
		return nil, nil
	}
	typ, ok := members["type"]
	if !ok {
		return nil, nil
	}
	if name, ok := typ.Text(); !ok || name != featureType {
		return nil, nil
	}

	geometry, ok := members["geometry"]
	if !ok {
		return nil, fail(errors.ErrCodeMissingGeometry, "filtered feature with no geometry")
	}
	if props, ok := members["properties"]; !ok || (props.Kind() != jsonseq.Object && props.Kind() != jsonseq.Null) {
		return nil, fail(errors.ErrCodeInvalidProperties, "feature without properties hash")
	}
	geometryType, ok := geometry.Get("type")
	if !ok {
		return nil, fail(errors.ErrCodeNullGeometry, "null geometry")
	}
	name, ok := geometryType.Text()
	if !ok {
		return nil, fail(errors.ErrCodeInvalidGeometryType, "geometry type is not a string")
	}
	if coords, ok := geometry.Get("coordinates"); !ok || coords.Kind() != jsonseq.Array {
		return nil, fail(errors.ErrCodeInvalidCoordinates, "feature without coordinates array")
	}
	if !tile.SupportedGeometry(name) {
		return nil, fail(errors.ErrCodeUnsupportedGeometry, "can't handle geometry type").WithDetail("geometry_type", name)
	}

	f, err := geojson.UnmarshalFeature(v.Raw())
	if err != nil {
		return nil, fail(errors.ErrCodeInvalidCoordinates, "invalid coordinates").WithCause(err)
	}
	return f, nil
}
