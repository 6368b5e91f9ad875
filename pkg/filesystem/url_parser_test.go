package filesystem_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/treescan/pkg/filesystem"
)

func TestParsePath_Local(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	parsed, err := filesystem.ParsePath("/var/data/archive")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(parsed.IsRemote).To(BeFalse())
	g.Expect(parsed.LocalPath).To(Equal("/var/data/archive"))
}

//nolint:funlen // Table-driven test over the URL forms.
func TestParsePath_SFTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPort int
		wantUser string
		wantPath string
	}{
		{
			name:     "home-relative path",
			url:      "sftp://joe@files.example.com/archive/docs",
			wantHost: "files.example.com",
			wantPort: 22,
			wantUser: "joe",
			wantPath: "archive/docs",
		},
		{
			name:     "absolute path",
			url:      "sftp://joe@files.example.com//srv/archive",
			wantHost: "files.example.com",
			wantPort: 22,
			wantUser: "joe",
			wantPath: "/srv/archive",
		},
		{
			name:     "explicit port",
			url:      "sftp://joe@files.example.com:2222/backups",
			wantHost: "files.example.com",
			wantPort: 2222,
			wantUser: "joe",
			wantPath: "backups",
		},
		{
			name:     "bare host means home",
			url:      "sftp://joe@files.example.com",
			wantHost: "files.example.com",
			wantPort: 22,
			wantUser: "joe",
			wantPath: ".",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			parsed, err := filesystem.ParsePath(tt.url)
			g.Expect(err).ShouldNot(HaveOccurred())
			g.Expect(parsed.IsRemote).To(BeTrue())
			g.Expect(parsed.Host).To(Equal(tt.wantHost))
			g.Expect(parsed.Port).To(Equal(tt.wantPort))
			g.Expect(parsed.User).To(Equal(tt.wantUser))
			g.Expect(parsed.Path).To(Equal(tt.wantPath))
		})
	}
}

func TestParsePath_SFTPErrors(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := filesystem.ParsePath("sftp://files.example.com/data")
	g.Expect(err).To(MatchError(filesystem.ErrMissingUser))

	_, err = filesystem.ParsePath("sftp://joe@/data")
	g.Expect(err).To(MatchError(filesystem.ErrMissingHost))

	_, err = filesystem.ParsePath("sftp://joe@files.example.com:notaport/data")
	g.Expect(err).To(HaveOccurred())
}
