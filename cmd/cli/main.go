// Command nk is a command-line client for the NoteAI REST API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"

	"github.com/and161185/noteai/internal/convert"
)

// ---- session store ----

type sessionFile struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "noteai")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "noteai")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(s sessionFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(sessionPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func loadSession() (sessionFile, error) {
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessionFile{}, errors.New("not logged in (run: nk login)")
		}
		return sessionFile{}, err
	}
	var s sessionFile
	if err := json.Unmarshal(b, &s); err != nil {
		return sessionFile{}, err
	}
	if s.AccessToken == "" && s.RefreshToken == "" {
		return sessionFile{}, errors.New("not logged in (run: nk login)")
	}
	return s, nil
}

func removeSession() error {
	err := os.Remove(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `nk CLI
Usage:
  nk [-addr URL] <cmd> [args]

Commands:
  version
  register   -name <name> -email <email> [-password <password>]
  login      -email <email> [-password <password>]   (saves session; prompts when -password is omitted)
  me
  refresh
  logout                                             (always forgets the local session)
  notes
  add        -title <t> (-content <c> | -file <path|->)
  edit       -id <uuid> [-title <t>] [-content <c>]
  rm         -id <uuid>
  ask        -message <text>                         (AI draft, saved as a note)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	addr := flag.String("addr", envOr("NOTEAI_ADDR", "http://localhost:8080"), "server base URL")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := run(ctx, newClient(*addr, nil), flag.Args(), os.Stdout); err != nil {
		fail(err)
	}
}

// run executes a single subcommand.
func run(ctx context.Context, c *client, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(out, "nk %s (%s)\n", version, buildDate)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email")
		pwd := fs.String("password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *name == "" || *email == "" {
			return errors.New("need -name and -email")
		}
		password, err := passwordOr(*pwd)
		if err != nil {
			return err
		}
		var resp struct{ User convert.User }
		if err := c.call(ctx, "POST", "/api/users/register", convert.RegisterRequest{Name: *name, Email: *email, Password: password}, &resp); err != nil {
			return err
		}
		fmt.Fprintln(out, resp.User.ID)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		pwd := fs.String("password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *email == "" {
			return errors.New("need -email")
		}
		password, err := passwordOr(*pwd)
		if err != nil {
			return err
		}
		var s convert.Session
		if err := c.call(ctx, "POST", "/api/users/login", convert.LoginRequest{Email: *email, Password: password}, &s); err != nil {
			return err
		}
		if err := c.store(s); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "me":
		var resp struct{ User convert.User }
		if err := c.authed(ctx, "GET", "/api/me", nil, &resp); err != nil {
			return err
		}
		printJSON(out, resp.User)
		return nil

	case "refresh":
		if err := c.refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "logout":
		if s, err := loadSession(); err == nil {
			_ = c.call(ctx, "POST", "/api/users/logout", convert.RefreshRequest{RefreshToken: s.RefreshToken}, nil)
		}
		if err := removeSession(); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "notes":
		var notes []convert.Note
		if err := c.authed(ctx, "GET", "/api/notes", nil, &notes); err != nil {
			return err
		}
		type row struct{ ID, Title, UpdatedAt string }
		rows := []row{}
		for _, n := range notes {
			rows = append(rows, row{ID: n.ID, Title: n.Title, UpdatedAt: n.UpdatedAt.Format(time.RFC3339)})
		}
		printJSON(out, rows)
		return nil

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		title := fs.String("title", "", "title")
		content := fs.String("content", "", "content")
		file := fs.String("file", "", "read content from file ('-' for stdin)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *file != "" {
			b, err := readAll(*file)
			if err != nil {
				return err
			}
			*content = string(b)
		}
		if *title == "" || strings.TrimSpace(*content) == "" {
			return errors.New("need -title and -content or -file")
		}
		var resp struct{ Note convert.Note }
		if err := c.authed(ctx, "POST", "/api/notes", convert.NoteRequest{Title: title, Content: content}, &resp); err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Note.ID)
		return nil

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		id := fs.String("id", "", "note id")
		title := fs.String("title", "", "new title")
		content := fs.String("content", "", "new content")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if _, err := u.FromString(*id); err != nil {
			return errors.New("need -id <uuid>")
		}
		var req convert.NoteRequest
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "title":
				req.Title = title
			case "content":
				req.Content = content
			}
		})
		if req.Title == nil && req.Content == nil {
			return errors.New("need -title and/or -content")
		}
		var resp struct{ Note convert.Note }
		if err := c.authed(ctx, "PUT", "/api/notes/"+*id, req, &resp); err != nil {
			return err
		}
		printJSON(out, resp.Note)
		return nil

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ContinueOnError)
		id := fs.String("id", "", "note id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if _, err := u.FromString(*id); err != nil {
			return errors.New("need -id <uuid>")
		}
		if err := c.authed(ctx, "DELETE", "/api/notes/"+*id, nil, nil); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "ask":
		fs := flag.NewFlagSet("ask", flag.ContinueOnError)
		msg := fs.String("message", "", "what the note should be about")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if strings.TrimSpace(*msg) == "" {
			return errors.New("need -message")
		}
		var resp struct{ Note convert.Note }
		if err := c.authed(ctx, "POST", "/api/chat-bot", convert.ChatRequest{Message: *msg}, &resp); err != nil {
			return err
		}
		printJSON(out, resp.Note)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
