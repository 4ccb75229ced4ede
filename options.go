package scrnscore

import (
	"github.com/pkg/errors"

	"github.com/nsip/scrn-score/internal/util"
)

// Option is a configuration setting applied by New.
type Option func(*ScrnScoreService) error

// apply the given options, then fill any gaps with generated
// defaults
func (s *ScrnScoreService) setOptions(options ...Option) error {

	for _, opt := range options {
		if err := opt(s); err != nil {
			return err
		}
	}

	return s.setDefaults()
}

func (s *ScrnScoreService) setDefaults() error {

	if s.serviceName == "" {
		s.serviceName = util.GenerateName()
	}
	if s.serviceID == "" {
		s.serviceID = util.GenerateID()
	}
	if s.serviceHost == "" {
		s.serviceHost = "localhost"
	}
	if s.servicePort == 0 {
		port, err := util.AvailablePort()
		if err != nil {
			return errors.Wrap(err, "cannot assign port for service")
		}
		s.servicePort = port
	}
	if s.storeURL == "" {
		return errors.New("must supply a url for the backing store")
	}

	return nil
}

//
// Name sets the name for this service instance, leave blank to
// auto-generate a short readable name.
//
func Name(name string) Option {
	return func(s *ScrnScoreService) error {
		s.serviceName = name
		return nil
	}
}

//
// ID sets the id for this service instance, leave blank to
// auto-generate a unique id.
//
func ID(id string) Option {
	return func(s *ScrnScoreService) error {
		s.serviceID = id
		return nil
	}
}

// Host sets the host name/address this service runs on.
func Host(host string) Option {
	return func(s *ScrnScoreService) error {
		s.serviceHost = host
		return nil
	}
}

//
// Port sets the port this service runs on, leave unset to assign an
// available port automatically.
//
func Port(port int) Option {
	return func(s *ScrnScoreService) error {
		s.servicePort = port
		return nil
	}
}

// StoreURL sets the base url of the supabase backing store.
func StoreURL(url string) Option {
	return func(s *ScrnScoreService) error {
		s.storeURL = url
		return nil
	}
}

// StoreKey sets the api key used to access the backing store.
func StoreKey(key string) Option {
	return func(s *ScrnScoreService) error {
		s.storeKey = key
		return nil
	}
}

//
// TextgenURL sets the url of the narrative generation service,
// leave blank to disable the /generate_story pass-through.
//
func TextgenURL(url string) Option {
	return func(s *ScrnScoreService) error {
		s.textgenURL = url
		return nil
	}
}

//
// NatsURL sets the nats server used for score event publishing,
// leave blank to disable publishing.
//
func NatsURL(url string) Option {
	return func(s *ScrnScoreService) error {
		s.natsURL = url
		return nil
	}
}
