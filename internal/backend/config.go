package backend

import (
	"fmt"

	"spendtrack/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	parserType := ParserType(appConfig.ParserBackend)
	if !parserType.IsValid() {
		return Config{}, fmt.Errorf("invalid parser type in config: %s", appConfig.ParserBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		ParserBackend:     parserType,
		LLMBaseURL:        appConfig.LLMBaseURL,
		LLMAPIKey:         appConfig.LLMAPIKey,
		LLMModel:          appConfig.LLMModel,
		LLMTimeout:        appConfig.LLMTimeout,
		CategoryRulesFile: appConfig.CategoryRulesFile,
		ReceiptCacheSize:  appConfig.ReceiptCacheSize,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	if c.ParserBackend != "" && !c.ParserBackend.IsValid() {
		return fmt.Errorf("invalid parser type: %s", c.ParserBackend)
	}
	if c.ParserBackend == LLMParser && c.LLMModel == "" {
		return fmt.Errorf("LLM model is required for llm parser")
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, PostgresBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
