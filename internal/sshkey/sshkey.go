// Package sshkey provisions the passwordless localhost ssh login the
// Hadoop start scripts rely on.
package sshkey

import (
	"bufio"
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

const (
	keyName     = "id_ed25519"
	configBlock = "localhost"
)

// Files are the locations managed in the ssh directory.
type Files struct {
	Dir            string
	PrivateKey     string
	PublicKey      string
	AuthorizedKeys string
	Config         string
}

// FilesIn returns the managed files under sshDir.
func FilesIn(sshDir string) Files {
	return Files{
		Dir:            sshDir,
		PrivateKey:     filepath.Join(sshDir, keyName),
		PublicKey:      filepath.Join(sshDir, keyName+".pub"),
		AuthorizedKeys: filepath.Join(sshDir, "authorized_keys"),
		Config:         filepath.Join(sshDir, "config"),
	}
}

// Result reports what Ensure changed.
type Result struct {
	Generated  bool // a new key pair was written
	Authorized bool // the public key was appended to authorized_keys
}

// Ensure makes sure a key pair exists, is authorized for the local user and
// that ssh to localhost skips host key prompts. An existing key is reused.
func Ensure(sshDir, comment string) (Result, error) {
	var res Result
	files := FilesIn(sshDir)
	if err := os.MkdirAll(files.Dir, 0700); err != nil {
		return res, fmt.Errorf("failed to create %s: %w", files.Dir, err)
	}
	if err := os.Chmod(files.Dir, 0700); err != nil {
		return res, err
	}

	pub, generated, err := ensureKeyPair(files, comment)
	if err != nil {
		return res, err
	}
	res.Generated = generated

	authorized, err := authorize(files.AuthorizedKeys, pub)
	if err != nil {
		return res, err
	}
	res.Authorized = authorized

	body := strings.Join([]string{
		"Host localhost 127.0.0.1 0.0.0.0",
		"  IdentityFile " + files.PrivateKey,
		"  StrictHostKeyChecking no",
		"  UserKnownHostsFile /dev/null",
		"  LogLevel ERROR",
	}, "\n")
	if _, err := util.UpsertManagedBlock(files.Config, configBlock, body, 0600); err != nil {
		return res, fmt.Errorf("failed to update %s: %w", files.Config, err)
	}
	return res, nil
}

// ensureKeyPair loads the existing private key or writes a new ed25519
// pair, returning the authorized_keys line of the public half.
func ensureKeyPair(files Files, comment string) ([]byte, bool, error) {
	if data, err := os.ReadFile(files.PrivateKey); err == nil {
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, false, fmt.Errorf("existing key %s is unreadable (passphrase protected keys are not supported): %w", files.PrivateKey, err)
		}
		line := authorizedLine(signer.PublicKey(), comment)
		if !util.FileExists(files.PublicKey) {
			if err := util.WriteFileAtomic(files.PublicKey, line, 0644); err != nil {
				return nil, false, err
			}
		}
		return line, false, nil
	} else if !os.IsNotExist(err) {
		return nil, false, err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode private key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, false, err
	}

	if err := util.WriteFileAtomic(files.PrivateKey, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, false, fmt.Errorf("failed to write %s: %w", files.PrivateKey, err)
	}
	line := authorizedLine(sshPub, comment)
	if err := util.WriteFileAtomic(files.PublicKey, line, 0644); err != nil {
		return nil, false, fmt.Errorf("failed to write %s: %w", files.PublicKey, err)
	}
	return line, true, nil
}

func authorizedLine(key ssh.PublicKey, comment string) []byte {
	line := bytes.TrimSpace(ssh.MarshalAuthorizedKey(key))
	if comment != "" {
		line = append(line, ' ')
		line = append(line, comment...)
	}
	return append(line, '\n')
}

// authorize appends line to authorized_keys unless the same key is
// already listed.
func authorize(path string, line []byte) (bool, error) {
	want, _, _, _, err := ssh.ParseAuthorizedKey(line)
	if err != nil {
		return false, err
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	scanner := bufio.NewScanner(bytes.NewReader(existing))
	for scanner.Scan() {
		got, _, _, _, err := ssh.ParseAuthorizedKey(scanner.Bytes())
		if err != nil {
			continue
		}
		if bytes.Equal(got.Marshal(), want.Marshal()) {
			return false, os.Chmod(path, 0600)
		}
	}

	content := existing
	if len(content) > 0 && content[len(content)-1] != '\n' {
		content = append(content, '\n')
	}
	content = append(content, line...)
	if err := util.WriteFileAtomic(path, content, 0600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// CheckLogin opens an ssh session to addr as user with the managed key and
// runs `true`. It confirms that the key and sshd are usable.
func CheckLogin(ctx context.Context, sshDir, addr, user string) error {
	data, err := os.ReadFile(FilesIn(sshDir).PrivateKey)
	if err != nil {
		return err
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return err
	}

	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // loopback only
		Timeout:         5 * time.Second,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return err
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()
	return session.Run("true")
}
