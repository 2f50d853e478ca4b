package engine

import "testing"

func TestOptionZeroValueIsNone(t *testing.T) {
	var o Option[uint8]
	if o.IsSome() {
		t.Error("zero Option should be None")
	}
	if _, ok := o.Get(); ok {
		t.Error("Get on None reported a value")
	}
}

func TestOptionSome(t *testing.T) {
	o := Some[uint8](42)
	v, ok := o.Get()
	if !ok || v != 42 {
		t.Errorf("Get() = (%v, %v), want (42, true)", v, ok)
	}
}

func TestCallbackOrAccessTags(t *testing.T) {
	var word uint32

	tests := []struct {
		name   string
		result OneWordResult
		tag    Tag
	}{
		{"none", NoResult[*uint32](), TagNone},
		{"callback", CallbackResult[*uint32](Callback{Data: "ctx"}), TagCallback},
		{"access", AccessResult(&word), TagAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.result.Valid() {
				t.Fatal("constructor produced an invalid tag")
			}
			if got := tt.result.Tag(); got != tt.tag {
				t.Errorf("Tag() = %v, want %v", got, tt.tag)
			}
		})
	}
}

func TestCallbackOrAccessZeroValueInvalid(t *testing.T) {
	var r OneWordResult
	if r.Valid() {
		t.Error("zero CallbackOrAccess must not carry a defined tag")
	}
	if _, ok := r.Callback(); ok {
		t.Error("Callback() interpreted the payload of an invalid tag")
	}
	if _, ok := r.Access(); ok {
		t.Error("Access() interpreted the payload of an invalid tag")
	}
}

func TestCallbackOrAccessPayloads(t *testing.T) {
	var word uint32
	r := AccessResult(&word)
	target, ok := r.Access()
	if !ok || target != &word {
		t.Error("Access payload lost")
	}
	if _, ok := r.Callback(); ok {
		t.Error("Access result reported a callback")
	}

	cb := Callback{Data: 7}
	c := CallbackResult[*uint32](cb)
	got, ok := c.Callback()
	if !ok || got.Data != 7 {
		t.Error("Callback payload lost")
	}
}

func TestExceptionString(t *testing.T) {
	tests := []struct {
		e    Exception
		want string
	}{
		{ExceptionUndefinedInstruction, "undefined instruction"},
		{ExceptionUnpredictableInstruction, "unpredictable instruction"},
		{ExceptionBreakpoint, "breakpoint"},
		{Exception(99), "unknown exception"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("Exception(%d).String() = %q, want %q", tt.e, got, tt.want)
		}
	}
}
