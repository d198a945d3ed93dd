package pathsafe

import (
	"path/filepath"
	"testing"
)

func TestSanitizeBasic(t *testing.T) {
	root := "/srv/www"
	got, err := Sanitize(root, "/index.html")
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	want := filepath.Join(root, "index.html")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSanitizeRejectsTraversal(t *testing.T) {
	if _, err := Sanitize("/srv/www", "/../etc/hosts"); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSanitizeRejectsEncodedTraversal(t *testing.T) {
	if _, err := Sanitize("/srv/www", "/%2e%2e/etc/passwd"); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSanitizeRejectsHiddenFile(t *testing.T) {
	if _, err := Sanitize("/srv/www", "/.hidden"); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSanitizeRejectsNUL(t *testing.T) {
	if _, err := Sanitize("/srv/www", "/foo%00.html"); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSanitizeRejectsReservedDeviceName(t *testing.T) {
	for _, name := range []string{"/CON", "/con.txt", "/COM1", "/lpt3.log"} {
		if _, err := Sanitize("/srv/www", name); err != ErrForbidden {
			t.Fatalf("%s: err = %v, want ErrForbidden", name, err)
		}
	}
}

func TestSanitizeRejectsAlternateDataStream(t *testing.T) {
	if _, err := Sanitize("/srv/www", "/file.txt:stream"); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSanitizeAllowsNestedPath(t *testing.T) {
	got, err := Sanitize("/srv/www", "/a/b/c.css")
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	want := filepath.Join("/srv/www", "a", "b", "c.css")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	root := "/srv/www"
	first, err := Sanitize(root, "/a/b.html")
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	// sanitize(sanitize(uri)) == sanitize(uri): re-sanitizing the
	// already-resolved absolute path (relative to root) is stable.
	rel := first[len(root):]
	second, err := Sanitize(root, rel)
	if err != nil {
		t.Fatalf("Sanitize on result: %v", err)
	}
	if first != second {
		t.Fatalf("not idempotent: %q != %q", first, second)
	}
}

func TestSanitizeRejectsBackslashTraversal(t *testing.T) {
	if _, err := Sanitize(`/srv/www`, `/a\..\b`); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSanitizeRejectsOversizedURI(t *testing.T) {
	big := make([]byte, MaxPath+1)
	for i := range big {
		big[i] = 'a'
	}
	if _, err := Sanitize("/srv/www", "/"+string(big)); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
