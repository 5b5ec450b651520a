package protocol

import (
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func buildSSHOutbound(b *repository.SSHBean) map[string]any {
	out := map[string]any{"type": "ssh"}
	serverFields(out, b.Address, b.Port)
	out["user"] = b.Username

	switch strings.ToLower(b.AuthType) {
	case repository.SSHAuthPassword:
		out["password"] = b.Password
	case repository.SSHAuthPrivateKey:
		out["private_key"] = b.PrivateKey
		setString(out, "private_key_passphrase", b.PrivateKeyPassphrase)
	}
	if keys := ValidHostKeys(b.HostKeys); len(keys) > 0 {
		out["host_key"] = keys
	}
	return out
}

// ValidHostKeys keeps the entries that parse as authorized_keys lines,
// normalised to "<type> <base64>".
func ValidHostKeys(keys []string) []string {
	var valid []string
	for _, raw := range keys {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(raw))
		if err != nil {
			continue
		}
		valid = append(valid, strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key))))
	}
	return valid
}
