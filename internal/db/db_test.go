package db

import "testing"

func TestOpen_WhenValidFileURL_ShouldReturnUsableDB(t *testing.T) {
	conn, err := Open("file:test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		t.Errorf("Expected ping to succeed, got: %v", err)
	}
}

func TestOpen_WhenEmptyURL_ShouldReturnError(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Expected error for empty URL")
	}
}

func TestOpen_WhenUnknownDriver_ShouldReturnError(t *testing.T) {
	orig := driverName
	driverName = "no-such-driver"
	defer func() { driverName = orig }()

	if _, err := Open("file:test.db"); err == nil {
		t.Error("Expected error for unregistered driver")
	}
}
