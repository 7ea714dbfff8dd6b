package device

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	initErr  error
	running  bool
)

func initAudio() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
		running = initErr == nil
	})

	return initErr
}

// Terminate releases PortAudio if it was initialized.
func Terminate() error {
	if !running {
		return nil
	}

	return portaudio.Terminate()
}

type Info struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	DefaultInput      bool
	DefaultOutput     bool
}

// Devices lists the audio devices PortAudio can see.
func Devices() ([]Info, error) {
	if err := initAudio(); err != nil {
		return nil, err
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var defaultIn, defaultOut string

	if in, err := portaudio.DefaultInputDevice(); err == nil {
		defaultIn = in.Name
	}

	if out, err := portaudio.DefaultOutputDevice(); err == nil {
		defaultOut = out.Name
	}

	infos := make([]Info, 0, len(devices))

	for i, d := range devices {
		infos = append(infos, Info{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			DefaultInput:      d.Name == defaultIn,
			DefaultOutput:     d.Name == defaultOut,
		})
	}

	return infos, nil
}
