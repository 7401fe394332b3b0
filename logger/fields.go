package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent    = "component"
	FieldInvocationID = "invocation_id"
	FieldError        = "error"
	FieldCode         = "code"
	FieldDuration     = "duration_ms"
	FieldTileZ        = "tile_z"
	FieldTileX        = "tile_x"
	FieldTileY        = "tile_y"
	FieldLayer        = "layer"
	FieldLine         = "line"
	FieldContext      = "context"
	FieldFeaturesIn   = "features_in"
	FieldFeaturesOut  = "features_out"
	FieldExitCode     = "exit_code"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("done", logger.Fields("layer", "roads", "features", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// TileFields creates fields identifying a tile.
func TileFields(z, x, y uint32) map[string]interface{} {
	return map[string]interface{}{
		FieldTileZ: z,
		FieldTileX: x,
		FieldTileY: y,
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
