// Package logger is the zerolog setup shared by every tilefilter package.
//
// Init configures the process-wide logger from the logging section of the
// config; Get hands out component-tagged children of it. Fields are passed
// as maps:
//
//	log := logger.Get("filter")
//	log.Info("layer filtered", logger.TileFields(z, x, y), logger.Fields(logger.FieldLayer, "roads"))
package logger
