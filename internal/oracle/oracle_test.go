package oracle

import "testing"

func TestRegistryLookup(t *testing.T) {
	name := "scripted-lookup"
	if Has(name) {
		t.Fatalf("backend %q should not exist yet", name)
	}
	if _, err := Get(name); err == nil {
		t.Fatal("expected error for unregistered backend")
	}

	first := &scriptedOracle{}
	Register(name, first)
	if !Has(name) {
		t.Error("Has should report a registered backend")
	}
	got, err := Get(name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != first {
		t.Error("Get returned a different backend than registered")
	}

	second := &scriptedOracle{}
	Register(name, second)
	got, err = Get(name)
	if err != nil {
		t.Fatalf("Get after re-register: %v", err)
	}
	if got != second {
		t.Error("re-registering a name should replace the backend")
	}
}
