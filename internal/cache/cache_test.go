package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	if !ok || v.(string) != "v" {
		t.Errorf("Get = (%v, %v), want (v, true)", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key reported as present")
	}
}

func TestGet_ExpiredEntryDropped(t *testing.T) {
	c := New()
	c.Set("k", "v", -time.Second)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
}

func TestKey_SeparatesParts(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries do not affect the key")
	}
	if Key("a", "b") != Key("a", "b") {
		t.Error("key not stable")
	}
}
