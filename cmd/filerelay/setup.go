package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/studio1767/filerelay/internal/config"
	"github.com/studio1767/filerelay/internal/crypt"
	"github.com/studio1767/filerelay/internal/notify"
	"github.com/studio1767/filerelay/internal/relay"
	"github.com/studio1767/filerelay/internal/remote"
	"github.com/studio1767/filerelay/internal/secrets"
	"github.com/studio1767/filerelay/internal/watermark"
)

// buildSecrets chains the secrets file, when one is configured, in front of
// the environment.
func buildSecrets(cfg *config.Config) (secrets.Provider, error) {
	var chain secrets.Chain
	if cfg.Secrets.File != "" {
		fp, err := secrets.LoadFile(cfg.Secrets.File)
		if err != nil {
			return nil, errors.Wrap(err, "loading secrets")
		}
		chain = append(chain, fp)
	}
	chain = append(chain, &secrets.EnvProvider{Prefix: cfg.Secrets.EnvPrefix})
	return chain, nil
}

func buildNotifier(cfg *config.Config, provider secrets.Provider, logger log.FieldLogger) (notify.Notifier, error) {
	smtp := cfg.Notify.SMTP
	if smtp.Host == "" {
		return &notify.Log{Logger: logger}, nil
	}

	n := &notify.SMTP{
		Host: smtp.Host,
		Port: smtp.Port,
		From: cfg.Notify.From,
		TLS:  smtp.TLS,
	}
	if smtp.Credential != "" {
		creds, err := provider.Credential(smtp.Credential)
		if err != nil {
			return nil, errors.Wrap(err, "resolving smtp credential")
		}
		n.Username = creds.Username
		n.Password = creds.Password
	}
	return n, nil
}

// fallbackNotifier is used when buildNotifier could not run because the
// secrets were unavailable. It sends without authentication, or logs when no
// mail server is configured.
func fallbackNotifier(cfg *config.Config, logger log.FieldLogger) notify.Notifier {
	smtp := cfg.Notify.SMTP
	if smtp.Host == "" {
		return &notify.Log{Logger: logger}
	}
	return &notify.SMTP{
		Host: smtp.Host,
		Port: smtp.Port,
		From: cfg.Notify.From,
		TLS:  smtp.TLS,
	}
}

// newRelay wires the stores, secrets, encryption, watermark and notifier
// described by cfg into a Relay.
func newRelay(cfg *config.Config, logger log.FieldLogger) (*relay.Relay, error) {
	source, err := remote.ForProtocol(cfg.Source.Protocol)
	if err != nil {
		return nil, err
	}
	destination, err := remote.ForProtocol(cfg.Destination.Protocol)
	if err != nil {
		return nil, err
	}

	provider, err := buildSecrets(cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(cfg, provider, logger)
	if err != nil {
		return nil, err
	}

	return relay.New(relay.Options{
		Config:      cfg,
		Source:      source,
		Destination: destination,
		Secrets:     provider,
		Encrypter:   &crypt.Age{Armor: cfg.Encryption.Armor},
		Watermark:   watermark.New(cfg.Watermark.Path, logger),
		Notifier:    notifier,
		Logger:      logger,
	}), nil
}
