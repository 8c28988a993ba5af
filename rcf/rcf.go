// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rcf computes random convolutional features: a fixed bank of
// Gaussian filters convolved over a patch, rectified both ways and
// mean pooled.
package rcf

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/venicegeo/bf-mosaiks/raster"
)

// ErrPatchTooSmall is returned for patches smaller than the kernel
var ErrPatchTooSmall = errors.New("patch is smaller than the kernel")

// Defaults match the usual MOSAIKS setup on four Landsat bands
const (
	DefaultNumFeatures = 1024
	DefaultKernelSize  = 3
	DefaultBias        = -1.0
)

// Config sizes the filter bank
type Config struct {
	NumFeatures int
	KernelSize  int
	NumChannels int
	Bias        float64
	Seed        int64
}

// DefaultConfig returns the default bank for a number of channels
func DefaultConfig(channels int) Config {
	return Config{
		NumFeatures: DefaultNumFeatures,
		KernelSize:  DefaultKernelSize,
		NumChannels: channels,
		Bias:        DefaultBias,
	}
}

// Model is an immutable filter bank and is safe for concurrent use
type Model struct {
	config  Config
	filters int
	// weights[f] holds filter f as channel x row x col
	weights [][]float64
}

// New draws the filter weights from N(0, 1) with the configured seed
func New(config Config) (*Model, error) {
	if config.NumFeatures <= 0 || config.NumFeatures%2 != 0 {
		return nil, fmt.Errorf("rcf: number of features must be positive and even, got %d", config.NumFeatures)
	}
	if config.KernelSize <= 0 {
		return nil, fmt.Errorf("rcf: kernel size must be positive, got %d", config.KernelSize)
	}
	if config.NumChannels <= 0 {
		return nil, fmt.Errorf("rcf: channel count must be positive, got %d", config.NumChannels)
	}

	filters := config.NumFeatures / 2
	size := config.NumChannels * config.KernelSize * config.KernelSize
	generator := rand.New(rand.NewSource(config.Seed))
	weights := make([][]float64, filters)
	for f := range weights {
		weights[f] = make([]float64, size)
		for i := range weights[f] {
			weights[f][i] = generator.NormFloat64()
		}
	}
	return &Model{config: config, filters: filters, weights: weights}, nil
}

// Config returns the configuration the model was built with
func (m *Model) Config() Config {
	return m.config
}

// NumFeatures is the width of every feature vector
func (m *Model) NumFeatures() int {
	return m.config.NumFeatures
}

// Forward returns [relu(z) means..., relu(-z) means...] over all valid
// kernel positions of the patch
func (m *Model) Forward(patch *raster.Patch) ([]float64, error) {
	k := m.config.KernelSize
	if patch.Channels != m.config.NumChannels {
		return nil, fmt.Errorf("rcf: patch has %d channels, model expects %d", patch.Channels, m.config.NumChannels)
	}
	if patch.Height < k || patch.Width < k {
		return nil, ErrPatchTooSmall
	}
	if len(patch.Data) != patch.Channels*patch.Height*patch.Width {
		return nil, fmt.Errorf("rcf: patch holds %d values, expected %dx%dx%d", len(patch.Data), patch.Channels, patch.Height, patch.Width)
	}

	outH, outW := patch.Height-k+1, patch.Width-k+1
	positions := float64(outH * outW)
	features := make([]float64, m.config.NumFeatures)
	window := make([]float64, m.config.NumChannels*k*k)

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			i := 0
			for c := 0; c < patch.Channels; c++ {
				for dy := 0; dy < k; dy++ {
					row := (c*patch.Height+y+dy)*patch.Width + x
					copy(window[i:i+k], patch.Data[row:row+k])
					i += k
				}
			}
			for f, w := range m.weights {
				z := m.config.Bias
				for j, v := range window {
					z += w[j] * v
				}
				if z > 0 {
					features[f] += z
				} else {
					features[m.filters+f] -= z
				}
			}
		}
	}
	for i := range features {
		features[i] /= positions
	}
	return features, nil
}
