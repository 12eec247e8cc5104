// File: transfercache/implementation_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transfercache

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/environment"
	"github.com/momentics/hioload-alloc/internal/experiment"
)

func TestImplementationToLabel(t *testing.T) {
	cases := map[Implementation]string{
		ImplementationLegacy: "LEGACY",
		ImplementationNone:   "NO_TRANSFERCACHE",
		ImplementationRing:   "RING",
	}
	for impl, want := range cases {
		if got := ImplementationToLabel(impl); got != want {
			t.Errorf("ImplementationToLabel(%d) = %q, want %q", int(impl), got, want)
		}
		if impl.String() != want {
			t.Errorf("String() = %q, want %q", impl.String(), want)
		}
	}
}

func TestImplementationToLabelUnknownCrashes(t *testing.T) {
	expectCrash(t, nil, func() { ImplementationToLabel(Implementation(42)) })
}

func TestChooseImplementation(t *testing.T) {
	ringOn := func(id experiment.ID) bool { return id == experiment.TestOnlyRingBufferTransferCache }
	cases := []struct {
		name     string
		env      map[string]string
		isActive func(experiment.ID) bool
		want     Implementation
		wantErr  bool
	}{
		{name: "absent", want: ImplementationLegacy},
		{name: "empty", env: map[string]string{EnvControl: ""}, want: ImplementationLegacy},
		{name: "zero", env: map[string]string{EnvControl: "0"}, want: ImplementationLegacy},
		{name: "one", env: map[string]string{EnvControl: "1"}, want: ImplementationRing},
		{name: "leading digit", env: map[string]string{EnvControl: "1xyz"}, want: ImplementationRing},
		{name: "bad", env: map[string]string{EnvControl: "2"}, wantErr: true},
		{name: "experiment", isActive: ringOn, want: ImplementationRing},
		{name: "experiment wins", env: map[string]string{EnvControl: "0"}, isActive: ringOn, want: ImplementationRing},
		{name: "experiment hides bad env", env: map[string]string{EnvControl: "x"}, isActive: ringOn, want: ImplementationRing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ChooseImplementation(environment.FromMap(tc.env), tc.isActive)
			if tc.wantErr {
				if !errors.Is(err, api.ErrBadEnvironment) {
					t.Fatalf("error = %v, want ErrBadEnvironment", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestChooseImplementationCustomLookupEmptyValue(t *testing.T) {
	lookup := func(string) (string, bool) { return "", true }
	got, err := ChooseImplementation(lookup, nil)
	if err != nil || got != ImplementationLegacy {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestNewManagerRejectsBadEnvironment(t *testing.T) {
	_, err := NewManager(newFakeForwarder(0), singlePartition(t),
		WithConfig(testConfig(1, 2, 4)),
		WithLookup(environment.FromMap(map[string]string{EnvControl: "bogus"})),
		WithExperiments(func(experiment.ID) bool { return false }),
	)
	if !errors.Is(err, api.ErrBadEnvironment) {
		t.Fatalf("error = %v, want ErrBadEnvironment", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Context["value"] != "bogus" {
		t.Errorf("diagnostic does not name the value: %v", err)
	}
}

func TestNewManagerFollowsExperiment(t *testing.T) {
	m, err := NewManager(newFakeForwarder(0), singlePartition(t),
		WithConfig(testConfig(1, 2, 4)),
		WithLookup(environment.FromMap(nil)),
		WithExperiments(func(id experiment.ID) bool { return id == experiment.TestOnlyRingBufferTransferCache }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if m.Implementation() != ImplementationRing {
		t.Errorf("implementation = %v, want RING", m.Implementation())
	}
}

func TestMustNewManagerCrashesOnBadEnvironment(t *testing.T) {
	expectCrash(t, api.ErrBadEnvironment, func() {
		MustNewManager(newFakeForwarder(0), singlePartition(t),
			WithConfig(testConfig(1, 2, 4)),
			WithLookup(environment.FromMap(map[string]string{EnvControl: "9"})),
			WithExperiments(func(experiment.ID) bool { return false }),
		)
	})
}
