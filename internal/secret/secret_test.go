package secret

import "testing"

func TestMapResolver_ResolveKnownRef(t *testing.T) {
	m := MapResolver{"imap_pw": "hunter2"}
	v, err := m.Resolve("imap_pw")
	if err != nil || v != "hunter2" {
		t.Fatalf("Resolve() = (%q, %v), want (hunter2, nil)", v, err)
	}
}

func TestMapResolver_UnknownRefReturnsNotFound(t *testing.T) {
	m := MapResolver{}
	_, err := m.Resolve("missing")
	var notFound *ErrNotFound
	if err == nil {
		t.Fatal("expected an error for unknown ref")
	}
	if !asErrNotFound(err, &notFound) {
		t.Errorf("expected *ErrNotFound, got %T", err)
	}
}

func TestMapResolver_EmptyRefIsCallerError(t *testing.T) {
	m := MapResolver{}
	if _, err := m.Resolve(""); err == nil {
		t.Fatal("expected an error for empty ref")
	}
}

func TestEnvResolver_ResolvesSetEnvironmentVariable(t *testing.T) {
	t.Setenv("COLIMAIL_TEST_SECRET", "s3cr3t")
	var r EnvResolver
	v, err := r.Resolve("COLIMAIL_TEST_SECRET")
	if err != nil || v != "s3cr3t" {
		t.Fatalf("Resolve() = (%q, %v), want (s3cr3t, nil)", v, err)
	}
}

func TestEnvResolver_UnsetVariableReturnsNotFound(t *testing.T) {
	var r EnvResolver
	_, err := r.Resolve("COLIMAIL_DEFINITELY_UNSET_VAR")
	var notFound *ErrNotFound
	if !asErrNotFound(err, &notFound) {
		t.Errorf("expected *ErrNotFound, got %T (%v)", err, err)
	}
}

func asErrNotFound(err error, target **ErrNotFound) bool {
	e, ok := err.(*ErrNotFound)
	if !ok {
		return false
	}
	*target = e
	return true
}
