package config

// ConfigDiff describes the hot-reloadable changes between two configs.
// Providers, sinks and the listen address require a restart and are not
// tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// AnswerChanged is set when judging or hint settings differ.
	AnswerChanged bool
	NewAnswer     AnswerConfig

	// ProblemsChanged is set when the problem source differs.
	ProblemsChanged bool

	// VoiceChanged is set when the preferred voice or locale differs.
	VoiceChanged bool
}

// Empty reports whether d carries no change.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.AnswerChanged && !d.ProblemsChanged && !d.VoiceChanged
}

// Diff compares old and new and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Answer != new.Answer {
		d.AnswerChanged = true
		d.NewAnswer = new.Answer
	}
	if old.Problems != new.Problems {
		d.ProblemsChanged = true
	}
	if old.Speech.PreferredVoice != new.Speech.PreferredVoice || old.Speech.Locale != new.Speech.Locale {
		d.VoiceChanged = true
	}
	return d
}
