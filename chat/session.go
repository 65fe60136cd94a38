package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	messagesFile = "messages.jsonl"
	metadataFile = "metadata.json"
)

// session owns one conversation's on-disk state: an append-only JSONL
// message log and a metadata JSON next to it.
type session struct {
	id  string
	dir string
	mtx sync.Mutex
}

func (s *session) appendMessage(ctx context.Context, msg Message) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, messagesFile)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}

	return nil
}

func (s *session) messages(ctx context.Context) ([]Message, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	path := filepath.Join(s.dir, messagesFile)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var msgs []Message

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// skip a torn tail line rather than losing the session
			slog.WarnContext(ctx, "skipping undecodable message line", "session_id", s.id, "error", err)
			continue
		}

		msgs = append(msgs, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return msgs, nil
}

func (s *session) saveInfo(ctx context.Context, info SessionInfo) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, metadataFile)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

func (s *session) info(ctx context.Context) (*SessionInfo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	path := filepath.Join(s.dir, metadataFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode session metadata: %w", err)
	}

	return &info, nil
}

func openSession(id string, baseDir string) (*session, error) {
	dir := filepath.Join(baseDir, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &session{id: id, dir: dir}, nil
}
