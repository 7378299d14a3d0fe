package manhole

import (
	"errors"
	"testing"

	"github.com/danmuck/manholectl/internal/engine"
	"github.com/danmuck/manholectl/internal/testutil/testlog"
)

func TestFactoryDefaultsToIsolated(t *testing.T) {
	testlog.Start(t)
	f, err := NewFactory("", nil)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	if f.Mode() != ModeIsolated {
		t.Fatalf("unexpected mode: %q", f.Mode())
	}
}

func TestFactoryRejectsUnknownMode(t *testing.T) {
	testlog.Start(t)
	if _, err := NewFactory("transactional", nil); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestFactoryRejectsBadSeed(t *testing.T) {
	testlog.Start(t)
	seed := map[string]any{"lowercase": 1}
	if _, err := NewFactory(ModeIsolated, seed); !errors.Is(err, engine.ErrInvalidSeed) {
		t.Fatalf("isolated: expected ErrInvalidSeed, got %v", err)
	}
	if _, err := NewFactory(ModeShared, seed); !errors.Is(err, engine.ErrInvalidSeed) {
		t.Fatalf("shared: expected ErrInvalidSeed, got %v", err)
	}
}

func TestIsolatedNamespacesAreIndependent(t *testing.T) {
	testlog.Start(t)
	f, err := NewFactory(ModeIsolated, nil)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	nsA, err := f.Namespace()
	if err != nil {
		t.Fatalf("namespace A: %v", err)
	}
	nsB, err := f.Namespace()
	if err != nil {
		t.Fatalf("namespace B: %v", err)
	}
	if nsA == nsB {
		t.Fatalf("isolated namespaces share an instance")
	}

	unit, err := nsA.Compile("x := 5\n")
	if err != nil {
		t.Fatalf("compile in A: %v", err)
	}
	if _, err := nsA.Execute(unit); err != nil {
		t.Fatalf("execute in A: %v", err)
	}

	// the binding must not exist in B
	if _, err := nsB.Compile("x\n"); err == nil {
		t.Fatalf("binding from A leaked into B")
	}
}

func TestSharedNamespaceIsSingleton(t *testing.T) {
	testlog.Start(t)
	f, err := NewFactory(ModeShared, nil)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	nsA, err := f.Namespace()
	if err != nil {
		t.Fatalf("namespace A: %v", err)
	}
	nsB, err := f.Namespace()
	if err != nil {
		t.Fatalf("namespace B: %v", err)
	}
	if nsA != nsB {
		t.Fatalf("shared mode handed out distinct namespaces")
	}

	unit, err := nsA.Compile("x := 5\n")
	if err != nil {
		t.Fatalf("compile in A: %v", err)
	}
	if _, err := nsA.Execute(unit); err != nil {
		t.Fatalf("execute in A: %v", err)
	}

	unit, err = nsB.Compile("x\n")
	if err != nil {
		t.Fatalf("compile in B: %v", err)
	}
	res, err := nsB.Execute(unit)
	if err != nil {
		t.Fatalf("execute in B: %v", err)
	}
	if !res.HasValue || res.Value != "5" {
		t.Fatalf("mutation not visible across sessions: %+v", res)
	}
}

func TestFactoryDoesNotRetainCallerSeed(t *testing.T) {
	testlog.Start(t)
	seed := map[string]any{"Answer": 42}
	f, err := NewFactory(ModeIsolated, seed)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	seed["Mutated"] = true

	ns, err := f.Namespace()
	if err != nil {
		t.Fatalf("namespace: %v", err)
	}
	if _, err := ns.Compile("Mutated\n"); err == nil {
		t.Fatalf("caller mutation leaked into factory seed")
	}
}
