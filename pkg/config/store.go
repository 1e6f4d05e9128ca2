package config

import (
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// PolicyStore holds the active BotPolicyConfig. Readers always observe a
// fully validated policy; replacements are atomic.
type PolicyStore struct {
	logger  *logrus.Logger
	current atomic.Pointer[BotPolicyConfig]
}

func NewPolicyStore(logger *logrus.Logger, initial BotPolicyConfig) (*PolicyStore, error) {
	s := &PolicyStore{logger: logger}
	if err := s.Replace(initial); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PolicyStore) Get() *BotPolicyConfig {
	return s.current.Load()
}

func (s *PolicyStore) Replace(cfg BotPolicyConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("policy rejected: %w", err)
	}
	s.current.Store(&cfg)
	return nil
}

// WatchPolicy reloads the policy section whenever the loaded config file
// changes. Invalid reloads are logged and the previous policy stays active.
func WatchPolicy(store *PolicyStore) {
	if loaded == nil {
		store.logger.Warn("policy hot reload disabled: configuration was not loaded from a file")
		return
	}
	loaded.OnConfigChange(func(e fsnotify.Event) {
		reloadPolicy(loaded, store, e)
	})
	loaded.WatchConfig()
}

func reloadPolicy(v *viper.Viper, store *PolicyStore, e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	var next BotPolicyConfig
	if err := v.UnmarshalKey("policy", &next); err != nil {
		store.logger.WithError(err).Error("failed to decode reloaded policy")
		return
	}
	if err := store.Replace(next); err != nil {
		store.logger.WithError(err).WithField("file", e.Name).Error("reloaded policy is invalid, keeping previous")
		return
	}
	store.logger.WithFields(logrus.Fields{
		"file":      e.Name,
		"enabled":   next.Enabled,
		"threshold": next.ConfidenceThreshold,
		"mode":      next.Mode,
	}).Info("bot policy reloaded")
}
