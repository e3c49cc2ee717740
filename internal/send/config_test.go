package send

import "testing"

func TestConfig_ImplicitTLS(t *testing.T) {
	if !(Config{Port: 465}).ImplicitTLS() {
		t.Error("port 465 should be implicit TLS")
	}
	if (Config{Port: 587}).ImplicitTLS() {
		t.Error("port 587 (STARTTLS) should not be implicit TLS")
	}
}
