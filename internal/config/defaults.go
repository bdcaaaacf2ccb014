package config

const (
	defaultWorkspaceDir          = "~/.local/share/overdub/workspace"
	defaultOutputDir             = "~/dubbed"
	defaultLogDir                = "~/.local/share/overdub/logs"
	defaultQueueDB               = "~/.local/share/overdub/overdub.db"
	defaultTargetLanguage        = "hi"
	defaultSampleRate            = 24000
	defaultDurationToleranceSecs = 0.1
	defaultSegmentTimeoutSecs    = 60
	defaultToolTimeoutSecs       = 300
	defaultBackgroundGainDB      = -10.0
	defaultQueuePollInterval     = 5
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			QueueDB:      defaultQueueDB,
		},
		Render: Render{
			TargetLanguage:        defaultTargetLanguage,
			SampleRate:            defaultSampleRate,
			DurationToleranceSecs: defaultDurationToleranceSecs,
			SegmentTimeoutSecs:    defaultSegmentTimeoutSecs,
			ToolTimeoutSecs:       defaultToolTimeoutSecs,
		},
		Mix: Mix{
			BackgroundGainDB: defaultBackgroundGainDB,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
