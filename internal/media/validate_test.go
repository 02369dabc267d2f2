package media

import "testing"

func TestSizeOK(t *testing.T) {
	if SizeOK(19999) {
		t.Fatal("19999 bytes should be rejected")
	}
	if !SizeOK(20000) {
		t.Fatal("20000 bytes should pass")
	}
}

func TestResolutionOK(t *testing.T) {
	cases := []struct {
		w, h int
		want bool
	}{
		{700, 700, false},
		{1200, 900, true},
		{700, 900, true},
		{900, 700, true},
		{799, 799, false},
		{800, 10, true},
	}
	for _, tc := range cases {
		if got := ResolutionOK(tc.w, tc.h); got != tc.want {
			t.Fatalf("ResolutionOK(%d,%d) = %v, want %v", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestDomainBlacklisted(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.instagram.com/p/abc.jpg", true},
		{"https://media.gettyimages.com/photos/1.jpg", true},
		{"https://stock.adobe.com/images/2", true},
		{"gettyimages.co.uk", true},
		{"https://cdn.cnn.com/photo.jpg", false},
		{"https://static.reuters.com/a.png?x=instagram.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := DomainBlacklisted(tc.in); got != tc.want {
			t.Fatalf("DomainBlacklisted(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidatorCustomThresholds(t *testing.T) {
	v := Validator{MinBytes: 10, MinDimension: 100, Blacklist: []string{"example.org"}}
	if !v.SizeOK(10) || v.SizeOK(9) {
		t.Fatal("custom byte threshold not applied")
	}
	if v.ResolutionOK(99, 99) || !v.ResolutionOK(100, 1) {
		t.Fatal("custom resolution threshold not applied")
	}
	if !v.DomainBlacklisted("http://img.example.org:8080/x") {
		t.Fatal("custom blacklist not applied")
	}
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://Img.CNN.com/a/b.jpg": "img.cnn.com",
		"bbc.com":                     "bbc.com",
		"bbc.com/news":                "bbc.com",
		"//cdn.npr.org/x.png":         "cdn.npr.org",
		"localhost:8080":              "localhost",
	}
	for in, want := range cases {
		if got := HostOf(in); got != want {
			t.Fatalf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}
