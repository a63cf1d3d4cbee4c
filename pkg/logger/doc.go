// Package logger provides the structured logging interface used by the
// archiver.
//
// It wraps zerolog with:
//   - a colored console layout (plain when stdout is not a terminal)
//   - raw JSON lines when the format is "json"
//   - optional rotating file output through lumberjack
//   - child loggers carrying fields, e.g. the run id of an archive run
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("user_id", 1234)
//	log.InfoWithFields("Favorites page fetched", map[string]interface{}{
//	    "page":  1,
//	    "posts": 75,
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to drop them.
package logger
