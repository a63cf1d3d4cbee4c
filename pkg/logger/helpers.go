package logger

// LogPage logs the outcome of fetching one favorites page
func LogPage(log Logger, userID, page, posts, eligible int) {
	log.InfoWithFields("Favorites page fetched", map[string]interface{}{
		"user_id":  userID,
		"page":     page,
		"posts":    posts,
		"eligible": eligible,
	})
}

// LogDownload logs a single media download attempt
func LogDownload(log Logger, checksum, url string, size int64, err error) {
	fields := map[string]interface{}{
		"md5": checksum,
		"url": url,
	}

	if err != nil {
		log.WithError(err).ErrorWithFields("Download failed", fields)
		return
	}

	fields["size"] = size
	log.InfoWithFields("Download completed", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(msg string)                                          {}
func (n nopLogger) Info(msg string)                                           {}
func (n nopLogger) Warn(msg string)                                           {}
func (n nopLogger) Error(msg string)                                          {}
func (n nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n nopLogger) WithError(err error) Logger                                { return n }
func (n nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
