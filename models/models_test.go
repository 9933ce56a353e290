package models

import (
	"testing"
)

// Test SettingsForm validation
func TestSettingsFormValidation(t *testing.T) {
	// Test valid form
	validForm := SettingsForm{
		AppKey:    "key",
		AppSecret: "secret",
		Endpoints: "/2/sharing/list_folders|sharing_folders_list\n\n/2/users/get_space_usage|space",
	}
	errors := validForm.Validate()
	if len(errors) != 0 {
		t.Errorf("Expected no errors for valid form, got: %v", errors)
	}

	// Test invalid form
	invalidForm := SettingsForm{
		AppKey:    "  ",
		AppSecret: "",
		Endpoints: "/2/sharing/list_folders\n|name",
	}
	errors = invalidForm.Validate()
	if len(errors) != 4 {
		t.Errorf("Expected 4 errors for invalid form, got: %v", errors)
	}
}

// Test endpoint parsing keeps order and skips malformed lines
func TestParseEndpoints(t *testing.T) {
	text := "/2/sharing/list_folders|sharing_folders_list\r\n" +
		"broken line\n" +
		"\n" +
		"2/users/get_space_usage | space_usage\n"

	endpoints := ParseEndpoints(text)
	if len(endpoints) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d: %v", len(endpoints), endpoints)
	}

	if endpoints[0] != (Endpoint{Path: "/2/sharing/list_folders", Name: "sharing_folders_list"}) {
		t.Errorf("Unexpected first endpoint: %+v", endpoints[0])
	}

	if endpoints[1] != (Endpoint{Path: "/2/users/get_space_usage", Name: "space_usage"}) {
		t.Errorf("Unexpected second endpoint: %+v", endpoints[1])
	}

	if got := FormatEndpoints(endpoints); got != "/2/sharing/list_folders|sharing_folders_list\n/2/users/get_space_usage|space_usage" {
		t.Errorf("Unexpected formatted endpoints: %q", got)
	}

	if ParseEndpoints("") != nil {
		t.Error("Expected no endpoints for empty text")
	}
}

// Test credential presence check
func TestSettingsIsConfigured(t *testing.T) {
	if (Settings{AppKey: "key"}).IsConfigured() {
		t.Error("Expected settings without secret to be unconfigured")
	}
	if !(Settings{AppKey: "key", AppSecret: "secret"}).IsConfigured() {
		t.Error("Expected settings with key and secret to be configured")
	}
}
