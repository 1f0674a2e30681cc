package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	DATADIR_ENVVAR = "RAFFLE_CLI_DATADIR"
	STATE_FILE     = "state.json"
)

var (
	version = "alpha"

	datadir   = defaultDatadir()
	statePath = filepath.Join(datadir, STATE_FILE)

	defaultServer = "http://localhost:7000"

	initialState = map[string]string{
		"server": defaultServer,
	}
)

func defaultDatadir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".raffle"
	}
	return filepath.Join(home, ".raffle")
}

func initCLIEnv() {
	dir := os.Getenv(DATADIR_ENVVAR)
	if len(dir) <= 0 {
		return
	}
	datadir = dir
	statePath = filepath.Join(dir, STATE_FILE)
}

func main() {
	initCLIEnv()

	app := cli.NewApp()

	app.Version = version
	app.Name = "Raffle CLI"
	app.Usage = "Command line interface to interact with raffled"
	app.Commands = append(
		app.Commands,
		configCommand, statusCommand, enterCommand, roundCommand,
		upkeepCommand, winnersCommand,
	)

	app.Before = func(ctx *cli.Context) error {
		if _, err := os.Stat(datadir); os.IsNotExist(err) {
			return os.Mkdir(datadir, os.ModeDir|0755)
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func getState() (map[string]string, error) {
	file, err := os.ReadFile(statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := setInitialState(); err != nil {
			return nil, err
		}
		return initialState, nil
	}

	data := map[string]string{}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, err
	}

	return data, nil
}

func setInitialState() error {
	jsonString, err := json.Marshal(initialState)
	if err != nil {
		return err
	}
	return os.WriteFile(statePath, jsonString, 0755)
}

func setState(data map[string]string) error {
	currentData, err := getState()
	if err != nil {
		return err
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	err = os.WriteFile(statePath, jsonString, 0755)
	if err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonBytes))
}

func getServerURL() (string, error) {
	state, err := getState()
	if err != nil {
		return "", err
	}
	server, ok := state["server"]
	if !ok {
		return "", errors.New("set server with `config set server`")
	}
	return server, nil
}

func callServer(method, path string, body interface{}) (map[string]interface{}, error) {
	server, err := getServerURL()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, server+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to server: %v", err)
	}
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("invalid server response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg, ok := decoded["error"].(string); ok {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return decoded, nil
}
