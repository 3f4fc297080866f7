package config

const (
	defaultInputPath            = "source.csv"
	defaultOutputDir            = "voxdata"
	defaultManifestPath         = "data.json"
	defaultLogDir               = "~/.local/share/nlisten/logs"
	defaultStateDir             = "~/.local/share/nlisten"
	defaultJournalFile          = "journal.db"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultVoicevoxURL          = "http://127.0.0.1:50021"
	defaultFFmpegBinary         = "ffmpeg"
	defaultCodec                = "libmp3lame"
	defaultQuality              = 4
	defaultChannels             = 1
	defaultSampleRate           = 24000
	defaultBarWidth             = 50
	defaultLogBucketPercent     = 5
	defaultNotifyRequestTimeout = 10
)

// DefaultSpeakers is the VOICEVOX speaker pool a build draws from.
var DefaultSpeakers = []int{6, 9, 11, 13, 20, 21, 32, 40}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Input:     defaultInputPath,
			OutputDir: defaultOutputDir,
			Manifest:  defaultManifestPath,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Voicevox: Voicevox{
			BaseURL:  defaultVoicevoxURL,
			Speakers: append([]int(nil), DefaultSpeakers...),
		},
		Encoder: Encoder{
			FFmpegBinary: defaultFFmpegBinary,
			Codec:        defaultCodec,
			Quality:      defaultQuality,
			Channels:     defaultChannels,
			SampleRate:   defaultSampleRate,
		},
		Progress: Progress{
			BarWidth:         defaultBarWidth,
			LogBucketPercent: defaultLogBucketPercent,
		},
		Journal: Journal{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
