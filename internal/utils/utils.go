package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

const configTemplate = `# Required. Sendspace API key, request one at https://www.sendspace.com/dev_apikeys.html
api_key = "{{SENDSPACE_API_KEY}}"

# Optional API endpoint, default "http://api.sendspace.com/rest/"
api_url = "http://api.sendspace.com/rest/"

# Account used for uploads. Either username or session_key is required.
username = "{{SENDSPACE_USERNAME}}"

# Optional. If empty you will be prompted for it.
password = ""

# Optional. Reuse a session key printed by 'gosendspace login' instead of logging in.
session_key = ""

# Optional log level, default "info"
loglevel = "info"

# Optional timeout for API calls in secs, default 30. Uploads are not bounded by it.
timeout = 30

# Optional User-Agent sent with uploads
# user_agent = "Mozilla/5.0 ..."

# Optional upload speed limit passed to the API, default 0 (unlimited)
speed_limit = 0

# Optional. Refuse to upload files larger than the account's max file size instead of only warning.
strict_file_size = false

# Optional defaults for every upload, all can be overridden with flags
[upload]
description = ""
password = ""
folder_id = ""
recipient_email = ""
notify_uploader = false
redirect_url = ""
`

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// PromptPassword asks for a password on w and reads it from stdin without
// echo when stdin is a terminal, or as a plain line otherwise.
func PromptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Sendspace password: ")

	fd := int(os.Stdin.Fd())
	if isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	return readLine(bufio.NewReader(os.Stdin))
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// RenderConfig fills the config template with the given API key and username.
func RenderConfig(apiKey, username string) string {
	config := strings.Replace(configTemplate, "{{SENDSPACE_API_KEY}}", apiKey, 1)
	return strings.Replace(config, "{{SENDSPACE_USERNAME}}", username, 1)
}

// GenerateConfig writes a configuration file, backing up an existing one
func GenerateConfig(configPath, apiKey, username string) error {
	fmt.Printf("Generating config %s\n", configPath)

	config := RenderConfig(apiKey, username)

	// Check if config file already exists and back it up
	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".bak"
		fmt.Printf("Backing up config %s\n", configPath)
		if err := os.Rename(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may hold credentials
	fmt.Printf("Writing %s\n", configPath)
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
