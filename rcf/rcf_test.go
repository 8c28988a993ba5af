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

package rcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/bf-mosaiks/raster"
)

func testPatch(channels, height, width int) *raster.Patch {
	patch := raster.NewPatch(channels, height, width)
	for i := range patch.Data {
		patch.Data[i] = float64(i%7) * 0.1
	}
	return patch
}

func TestForward_KnownWeights(t *testing.T) {
	// Mock
	model := &Model{config: Config{NumFeatures: 2, KernelSize: 1, NumChannels: 1, Bias: -1}, filters: 1, weights: [][]float64{{2}}}
	patch := &raster.Patch{Channels: 1, Height: 2, Width: 2, Data: []float64{0, 1, 2, 3}}

	// Tested code
	features, err := model.Forward(patch)

	// Asserts
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{2.25, 0.25}, features, 1e-12)
}

func TestForward_ValidConvolution(t *testing.T) {
	// Mock
	model := &Model{config: Config{NumFeatures: 2, KernelSize: 2, NumChannels: 1}, filters: 1, weights: [][]float64{{1, 1, 1, 1}}}
	patch := &raster.Patch{Channels: 1, Height: 3, Width: 3, Data: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}}

	// Tested code
	features, err := model.Forward(patch)

	// Asserts
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{20, 0}, features, 1e-12)
}

func TestForward_MultiChannel(t *testing.T) {
	// Mock
	model := &Model{
		config:  Config{NumFeatures: 4, KernelSize: 1, NumChannels: 2},
		filters: 2,
		weights: [][]float64{{1, 0}, {0, -1}},
	}
	patch := &raster.Patch{Channels: 2, Height: 1, Width: 2, Data: []float64{1, 3, 10, 20}}

	// Tested code
	features, err := model.Forward(patch)

	// Asserts
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{2, 0, 0, 15}, features, 1e-12)
}

func TestNew_Deterministic(t *testing.T) {
	// Mock
	config := DefaultConfig(4)
	config.NumFeatures = 16
	config.Seed = 42
	other := config
	other.Seed = 43
	patch := testPatch(4, 8, 8)

	// Tested code
	first, err1 := New(config)
	second, err2 := New(config)
	third, err3 := New(other)
	a, _ := first.Forward(patch)
	b, _ := second.Forward(patch)
	c, _ := third.Forward(patch)

	// Asserts
	require.Nil(t, err1)
	require.Nil(t, err2)
	require.Nil(t, err3)
	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, v := range a {
		assert.True(t, v >= 0)
	}
}

func TestNew_Errors(t *testing.T) {
	// Tested code
	_, oddErr := New(Config{NumFeatures: 3, KernelSize: 3, NumChannels: 1})
	_, zeroErr := New(Config{NumFeatures: 0, KernelSize: 3, NumChannels: 1})
	_, kernelErr := New(Config{NumFeatures: 2, KernelSize: 0, NumChannels: 1})
	_, channelErr := New(Config{NumFeatures: 2, KernelSize: 3, NumChannels: 0})

	// Asserts
	assert.NotNil(t, oddErr)
	assert.NotNil(t, zeroErr)
	assert.NotNil(t, kernelErr)
	assert.NotNil(t, channelErr)
}

func TestForward_Errors(t *testing.T) {
	// Mock
	model, err := New(Config{NumFeatures: 4, KernelSize: 3, NumChannels: 2, Bias: -1})
	require.Nil(t, err)

	// Tested code
	_, smallErr := model.Forward(testPatch(2, 2, 5))
	_, channelErr := model.Forward(testPatch(3, 5, 5))
	short := testPatch(2, 5, 5)
	short.Data = short.Data[:30]
	_, shortErr := model.Forward(short)

	// Asserts
	assert.Equal(t, ErrPatchTooSmall, smallErr)
	assert.NotNil(t, channelErr)
	assert.NotNil(t, shortErr)
	assert.NotEqual(t, ErrPatchTooSmall, shortErr)
	assert.Equal(t, 4, model.NumFeatures())
}
