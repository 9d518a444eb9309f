package digitalocean

import (
	"fmt"
	"log"
	"os"
	"sync"
)

var (
	globalSpacesConfig     *SpacesConfig
	globalSpacesConfigOnce sync.Once
	globalSpacesConfigErr  error
)

// GetGlobalSpacesConfig returns the Spaces configuration from the
// environment. Safe to call multiple times - it only initializes once.
func GetGlobalSpacesConfig() (*SpacesConfig, error) {
	globalSpacesConfigOnce.Do(func() {
		globalSpacesConfig, globalSpacesConfigErr = initGlobalSpacesConfig()
	})
	return globalSpacesConfig, globalSpacesConfigErr
}

func initGlobalSpacesConfig() (*SpacesConfig, error) {
	config := &SpacesConfig{
		AccessKey: os.Getenv("DO_SPACES_ACCESS_KEY"),
		SecretKey: os.Getenv("DO_SPACES_SECRET_KEY"),
		Bucket:    os.Getenv("DO_SPACES_BUCKET"),
		Region:    os.Getenv("DO_SPACES_REGION"),
		Endpoint:  os.Getenv("DO_SPACES_ENDPOINT"),
		CDNURL:    os.Getenv("DO_SPACES_CDN_ENDPOINT"),
	}

	if config.Bucket == "" || config.Region == "" {
		return nil, fmt.Errorf("DO_SPACES_BUCKET and DO_SPACES_REGION must be configured")
	}

	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("DO_SPACES_ACCESS_KEY and DO_SPACES_SECRET_KEY must be configured")
	}

	// Default endpoint without https:// prefix for URL construction
	if config.Endpoint == "" {
		config.Endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", config.Region)
	}

	log.Println("Spaces: Using configured access keys")
	return config, nil
}

// IsConfigured returns true if Spaces is properly configured
func (c *SpacesConfig) IsConfigured() bool {
	return c != nil && c.AccessKey != "" && c.SecretKey != ""
}

// NewSpacesClientFromGlobalConfig creates a SpacesClient from the global config
func NewSpacesClientFromGlobalConfig() (*SpacesClient, error) {
	config, err := GetGlobalSpacesConfig()
	if err != nil {
		return nil, err
	}
	return NewSpacesClient(*config)
}
