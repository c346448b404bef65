package embedding

import "testing"

func TestNewClientRequiresEmbedder(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("NewClient(nil) should fail")
	}
}
