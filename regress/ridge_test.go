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

package regress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearData follows y = 2 + 3*x0 - x1 exactly
func linearData(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x0, x1 := float64(i), float64((i*7)%11)
		x.Set(i, 0, x0)
		x.Set(i, 1, x1)
		y[i] = 2 + 3*x0 - x1
	}
	return x, y
}

func TestFit(t *testing.T) {
	// Mock
	x, y := linearData(40)

	// Tested code
	model, err := Fit(x, y, 0)

	// Asserts
	require.Nil(t, err)
	assert.InDelta(t, 2, model.Intercept, 1e-6)
	assert.InDeltaSlice(t, []float64{3, -1}, model.Coef, 1e-6)

	predictions, err := model.Predict(x)
	require.Nil(t, err)
	assert.InDeltaSlice(t, y, predictions, 1e-6)
	assert.InDelta(t, 1, R2(y, predictions), 1e-9)
}

func TestFit_Shrinks(t *testing.T) {
	// Mock
	x, y := linearData(40)

	// Tested code
	loose, err1 := Fit(x, y, 0)
	tight, err2 := Fit(x, y, 1e6)

	// Asserts
	require.Nil(t, err1)
	require.Nil(t, err2)
	assert.True(t, mat.Norm(mat.NewVecDense(2, tight.Coef), 2) < mat.Norm(mat.NewVecDense(2, loose.Coef), 2))
}

func TestFit_Errors(t *testing.T) {
	// Mock
	x, y := linearData(10)
	duplicate := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})

	// Tested code
	_, lengthErr := Fit(x, y[:5], 1)
	_, negativeErr := Fit(x, y, -1)
	_, singularErr := Fit(duplicate, []float64{1, 2, 3}, 0)
	model, _ := Fit(x, y, 1)
	_, widthErr := model.Predict(mat.NewDense(1, 3, nil))

	// Asserts
	assert.NotNil(t, lengthErr)
	assert.NotNil(t, negativeErr)
	assert.NotNil(t, singularErr)
	assert.NotNil(t, widthErr)
}

func TestCrossValidate(t *testing.T) {
	// Mock
	x, y := linearData(50)

	// Tested code
	result, err := CrossValidate(x, y, []float64{1e6, 1e-6}, 5, 1)
	again, _ := CrossValidate(x, y, []float64{1e6, 1e-6}, 5, 1)

	// Asserts
	require.Nil(t, err)
	assert.Equal(t, 1e-6, result.Lambda)
	assert.Len(t, result.Scores, 2)
	assert.True(t, result.Scores[1] > result.Scores[0])
	assert.InDelta(t, 1, result.MeanR2, 1e-6)
	assert.InDeltaSlice(t, []float64{3, -1}, result.Model.Coef, 1e-4)
	assert.Equal(t, result.Scores, again.Scores)
}

func TestCrossValidate_Errors(t *testing.T) {
	// Mock
	x, y := linearData(4)

	// Tested code
	_, fewFoldsErr := CrossValidate(x, y, nil, 1, 0)
	_, manyFoldsErr := CrossValidate(x, y, nil, 5, 0)
	_, lengthErr := CrossValidate(x, y[:3], nil, 2, 0)

	// Asserts
	assert.NotNil(t, fewFoldsErr)
	assert.NotNil(t, manyFoldsErr)
	assert.NotNil(t, lengthErr)
}

func TestCrossValidate_WideMatrixPicksGridLambda(t *testing.T) {
	// Mock
	n, p := 8, 12
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, float64((i*(j+3)+j)%7))
		}
		y[i] = float64(i)
	}

	// Tested code
	result, err := CrossValidate(x, y, []float64{1, 10}, 4, 1)

	// Asserts
	require.Nil(t, err)
	assert.Contains(t, []float64{1, 10}, result.Lambda)
	assert.Equal(t, result.Lambda, result.Model.Lambda)
	assert.Len(t, result.Model.Coef, p)
}

func TestCrossValidate_LeaveOneOutRejected(t *testing.T) {
	// Mock
	x, y := linearData(4)

	// Tested code
	_, err := CrossValidate(x, y, []float64{1, 10}, 4, 1)

	// Asserts
	assert.NotNil(t, err)
}

func TestCrossValidate_ConstantLabels(t *testing.T) {
	// Mock
	x, _ := linearData(10)
	y := make([]float64, 10)

	// Tested code
	result, err := CrossValidate(x, y, []float64{1, 10}, 2, 1)

	// Asserts
	assert.NotNil(t, err)
	assert.Nil(t, result)
}
