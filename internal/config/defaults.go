package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Workspace:       "~/.ingestbot/workspace",
			LogLevel:        "info",
			DefaultProvider: "gemini",
			MaxSteps:        20,
		},
		Providers: map[string]ProviderConfig{
			"gemini": {
				Enabled:      true,
				APIKey:       "${GOOGLE_API_KEY}",
				DefaultModel: "gemini-2.0-flash",
			},
			"openai": {
				Enabled:      false,
				APIBase:      "https://api.openai.com/v1",
				APIKey:       "${OPENAI_API_KEY}",
				DefaultModel: "gpt-4o-mini",
			},
		},
		Store: StoreConfig{
			DBPath: "~/.ingestbot/shared_memory.db",
		},
	}
}
