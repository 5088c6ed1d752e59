package config

const DefaultKapaBaseURL = "https://api.kapa.ai"

type KapaConfig struct {
	ProjectID     string `validate:"required"`
	APIKey        string `validate:"required"`
	IntegrationID string `validate:"required"`
	BaseURL       string `validate:"required,url"`
}

func GetKapaProjectID() string {
	return GetEnvOrDefault("KAPA_PROJECT_ID", "")
}

func GetKapaAPIKey() string {
	return GetEnvOrDefault("KAPA_API_KEY", "")
}

func GetKapaIntegrationID() string {
	return GetEnvOrDefault("KAPA_INTEGRATION_ID", "")
}

func GetKapaConfig() KapaConfig {
	return KapaConfig{
		ProjectID:     GetKapaProjectID(),
		APIKey:        GetKapaAPIKey(),
		IntegrationID: GetKapaIntegrationID(),
		BaseURL:       GetEnvOrDefault("KAPA_BASE_URL", DefaultKapaBaseURL),
	}
}
