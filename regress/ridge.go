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

// Package regress fits ridge regressions of labels on feature matrices.
package regress

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultLambdas is the penalty grid searched when none is given
var DefaultLambdas = []float64{1e-4, 1e-3, 1e-2, 1e-1, 1, 10, 100, 1000}

// Model is a fitted linear model with an unpenalized intercept
type Model struct {
	Intercept float64
	Coef      []float64
	Lambda    float64
}

// Fit solves min |y - b0 - X b|^2 + lambda |b|^2
func Fit(x mat.Matrix, y []float64, lambda float64) (*Model, error) {
	n, p := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("regress: %d rows but %d labels", n, len(y))
	}
	if n == 0 || p == 0 {
		return nil, errors.New("regress: empty design matrix")
	}
	if lambda < 0 {
		return nil, fmt.Errorf("regress: negative penalty %v", lambda)
	}

	means := make([]float64, p)
	for j := 0; j < p; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	yMean := stat.Mean(y, nil)

	centered := mat.NewDense(n, p, nil)
	centered.Apply(func(i, j int, v float64) float64 { return v - means[j] }, x)
	yCentered := mat.NewVecDense(n, nil)
	for i, v := range y {
		yCentered.SetVec(i, v-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, centered.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(centered.T(), yCentered)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, fmt.Errorf("regress: system is singular at lambda %v", lambda)
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return nil, fmt.Errorf("regress: %w", err)
	}

	model := &Model{Coef: make([]float64, p), Lambda: lambda, Intercept: yMean}
	for j := 0; j < p; j++ {
		model.Coef[j] = beta.AtVec(j)
		model.Intercept -= means[j] * model.Coef[j]
	}
	return model, nil
}

// Predict applies the model to every row of x
func (m *Model) Predict(x mat.Matrix) ([]float64, error) {
	n, p := x.Dims()
	if p != len(m.Coef) {
		return nil, fmt.Errorf("regress: model has %d coefficients, matrix has %d columns", len(m.Coef), p)
	}
	var out mat.VecDense
	out.MulVec(x, mat.NewVecDense(p, append([]float64(nil), m.Coef...)))
	predictions := make([]float64, n)
	for i := range predictions {
		predictions[i] = out.AtVec(i) + m.Intercept
	}
	return predictions, nil
}

// R2 is the coefficient of determination of predictions against y
func R2(y, predictions []float64) float64 {
	return stat.RSquaredFrom(predictions, y, nil)
}

// CVResult is the outcome of a penalty search
type CVResult struct {
	Lambda float64
	MeanR2 float64
	// Scores holds the mean validation R2 per lambda, in input order
	Scores []float64
	Model  *Model
}

// CrossValidate picks the lambda with the best mean validation R2 over k
// shuffled folds and refits it on all rows
func CrossValidate(x mat.Matrix, y []float64, lambdas []float64, folds int, seed int64) (*CVResult, error) {
	n, _ := x.Dims()
	if len(lambdas) == 0 {
		lambdas = DefaultLambdas
	}
	// every test fold needs two rows for R2 to be defined
	if folds < 2 || folds > n/2 {
		return nil, fmt.Errorf("regress: %d folds for %d rows", folds, n)
	}
	if n != len(y) {
		return nil, fmt.Errorf("regress: %d rows but %d labels", n, len(y))
	}

	assignment := rand.New(rand.NewSource(seed)).Perm(n)
	result := &CVResult{Scores: make([]float64, len(lambdas))}
	best := -1
	for l, lambda := range lambdas {
		total, scored := 0.0, 0
		for fold := 0; fold < folds; fold++ {
			var train, test []int
			for i, slot := range assignment {
				if slot%folds == fold {
					test = append(test, i)
				} else {
					train = append(train, i)
				}
			}
			model, err := Fit(rows(x, train), pick(y, train), lambda)
			if err != nil {
				return nil, err
			}
			predictions, err := model.Predict(rows(x, test))
			if err != nil {
				return nil, err
			}
			// constant test labels leave R2 undefined
			if score := R2(pick(y, test), predictions); !math.IsNaN(score) && !math.IsInf(score, 0) {
				total += score
				scored++
			}
		}
		if scored == 0 {
			result.Scores[l] = math.NaN()
			continue
		}
		result.Scores[l] = total / float64(scored)
		if best < 0 || result.Scores[l] > result.Scores[best] {
			best = l
		}
	}
	if best < 0 {
		return nil, errors.New("regress: no fold had varying labels")
	}
	result.Lambda = lambdas[best]
	result.MeanR2 = result.Scores[best]

	model, err := Fit(x, y, result.Lambda)
	if err != nil {
		return nil, err
	}
	result.Model = model
	return result, nil
}

func rows(x mat.Matrix, indexes []int) *mat.Dense {
	_, p := x.Dims()
	out := mat.NewDense(len(indexes), p, nil)
	for r, i := range indexes {
		for j := 0; j < p; j++ {
			out.Set(r, j, x.At(i, j))
		}
	}
	return out
}

func pick(values []float64, indexes []int) []float64 {
	out := make([]float64, len(indexes))
	for r, i := range indexes {
		out[r] = values[i]
	}
	return out
}
