package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var (
	playerFlag = &cli.StringFlag{
		Name:     "player",
		Usage:    "the address entering the raffle",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "the entry payment, must cover the entrance fee",
		Required: true,
	}
	roundIdFlag = &cli.StringFlag{
		Name:  "id",
		Usage: "the id of a past or ongoing round",
	}
	performFlag = &cli.BoolFlag{
		Name:  "perform",
		Usage: "trigger the draw instead of only checking readiness",
		Value: false,
	}
	abortFlag = &cli.StringFlag{
		Name:  "abort",
		Usage: "abort a pending draw with the given reason, reopening the round",
	}
)

var statusCommand = &cli.Command{
	Name:   "status",
	Usage:  "Get info about the ongoing raffle round",
	Action: statusAction,
}

var enterCommand = &cli.Command{
	Name:   "enter",
	Usage:  "Enter the ongoing raffle round",
	Action: enterAction,
	Flags:  []cli.Flag{playerFlag, amountFlag},
}

var roundCommand = &cli.Command{
	Name:   "round",
	Usage:  "Get info about a raffle round",
	Action: getRoundAction,
	Flags:  []cli.Flag{roundIdFlag},
}

var upkeepCommand = &cli.Command{
	Name:   "upkeep",
	Usage:  "Check draw readiness, optionally trigger the draw",
	Action: upkeepAction,
	Flags:  []cli.Flag{performFlag, abortFlag},
}

var winnersCommand = &cli.Command{
	Name:   "winners",
	Usage:  "List the winners of past rounds",
	Action: winnersAction,
}

func statusAction(ctx *cli.Context) error {
	resp, err := callServer(http.MethodGet, "/v1/raffle", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func enterAction(ctx *cli.Context) error {
	_, err := callServer(http.MethodPost, "/v1/raffle/entries", map[string]interface{}{
		"player": ctx.String("player"),
		"amount": ctx.Uint64("amount"),
	})
	if err != nil {
		return err
	}

	fmt.Println("entry recorded")
	return nil
}

func getRoundAction(ctx *cli.Context) error {
	id := ctx.String("id")
	if id == "" {
		return fmt.Errorf("missing flag, please provide --id")
	}

	resp, err := callServer(http.MethodGet, "/v1/rounds/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func upkeepAction(ctx *cli.Context) error {
	if reason := ctx.String("abort"); reason != "" {
		_, err := callServer(http.MethodDelete, "/v1/upkeep", map[string]interface{}{
			"reason": reason,
		})
		if err != nil {
			return err
		}
		fmt.Println("draw aborted, round reopened")
		return nil
	}
	if ctx.Bool("perform") {
		resp, err := callServer(http.MethodPost, "/v1/upkeep", nil)
		if err != nil {
			return err
		}
		printRespJSON(resp)
		return nil
	}

	resp, err := callServer(http.MethodGet, "/v1/upkeep", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func winnersAction(ctx *cli.Context) error {
	resp, err := callServer(http.MethodGet, "/v1/winners", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
