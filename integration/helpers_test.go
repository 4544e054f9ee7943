package integration

import (
	"time"

	"github.com/killallgit/scout/pkg/backend"
	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	. "github.com/onsi/ginkgo/v2"
	"github.com/spf13/viper"
)

// integrationConfig reads the target backend from the environment, skipping
// the test unless INTEGRATION_TEST=true
func integrationConfig() *config.Config {
	viper.Reset()
	viper.AutomaticEnv()
	if viper.GetString("INTEGRATION_TEST") != "true" {
		Skip("Integration tests skipped. Set INTEGRATION_TEST=true to run.")
	}

	cfg, err := config.Load("")
	if err != nil {
		Fail("failed to load config: " + err.Error())
	}
	return cfg
}

func newBackend(cfg *config.Config, transport string) chat.Backend {
	opts := []backend.Option{
		backend.WithAPIKey(cfg.Backend.APIKey),
		backend.WithTimeout(30 * time.Second),
	}
	if transport == config.TransportWebSocket {
		return backend.NewWebSocketClient(cfg.Backend.URL, opts...)
	}
	return backend.NewClient(cfg.Backend.URL, opts...)
}

// lastAssistant returns the trailing answer of a transcript
func lastAssistant(history []chat.Message) chat.Message {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != chat.RoleUser {
			return history[i]
		}
	}
	return chat.Message{}
}
