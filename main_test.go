package main

import (
	"testing"

	"go.uber.org/fx"
)

func TestDependenciesAreSatisfied(t *testing.T) {
	if err := fx.ValidateApp(opts()); err != nil {
		t.Fatal(err)
	}
}
