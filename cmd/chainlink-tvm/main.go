package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
	"github.com/smartcontractkit/chainlink-tvm/pkg/bindings"
)

func main() {
	lggr, err := logger.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "chainlink-tvm",
		Usage: "TVM contract ABI codec utility",
		Commands: []*cli.Command{
			decodeInputCmd(lggr),
			decodeOutputCmd(lggr),
			decodeEventCmd(lggr),
			decodeTransactionCmd(lggr),
			selectorCmd,
			packCmd(lggr),
			unpackCmd(lggr),
			verifySignatureCmd(lggr),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var abiFlag = &cli.StringFlag{
	Name:     "abi",
	Usage:    "path to the contract ABI descriptor",
	Required: true,
}

func readABI(cctx *cli.Context) ([]byte, error) {
	data, err := os.ReadFile(cctx.String("abi"))
	if err != nil {
		return nil, fmt.Errorf("failed to read ABI: %w", err)
	}
	return data, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func decodeInputCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "decode-input",
		Usage:     "Decode an inbound message body against the contract ABI",
		ArgsUsage: "BODY_BASE64",
		Flags: []cli.Flag{
			abiFlag,
			&cli.BoolFlag{
				Name:  "internal",
				Usage: "treat the body as an internal message body",
			},
			&cli.StringSliceFlag{
				Name:  "method",
				Usage: "restrict matching to the named methods",
			},
		},
		Action: func(cctx *cli.Context) error {
			abiJSON, err := readABI(cctx)
			if err != nil {
				return err
			}
			b := bindings.New(lggr)
			decoded, err := b.DecodeInput(cctx.Args().First(), abiJSON, cctx.Bool("internal"), cctx.StringSlice("method")...)
			if err != nil {
				return err
			}
			if decoded == nil {
				return fmt.Errorf("no declared method matches the body")
			}
			return printJSON(decoded)
		},
	}
}

func decodeOutputCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "decode-output",
		Usage:     "Decode an answer body against the contract ABI",
		ArgsUsage: "BODY_BASE64",
		Flags: []cli.Flag{
			abiFlag,
			&cli.StringSliceFlag{
				Name:  "method",
				Usage: "restrict matching to the named methods",
			},
		},
		Action: func(cctx *cli.Context) error {
			abiJSON, err := readABI(cctx)
			if err != nil {
				return err
			}
			b := bindings.New(lggr)
			decoded, err := b.DecodeOutput(cctx.Args().First(), abiJSON, cctx.StringSlice("method")...)
			if err != nil {
				return err
			}
			if decoded == nil {
				return fmt.Errorf("no declared method matches the body")
			}
			return printJSON(decoded)
		},
	}
}

func decodeEventCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "decode-event",
		Usage:     "Decode an outbound event body against the contract ABI",
		ArgsUsage: "BODY_BASE64",
		Flags: []cli.Flag{
			abiFlag,
			&cli.StringSliceFlag{
				Name:  "event",
				Usage: "restrict matching to the named events",
			},
		},
		Action: func(cctx *cli.Context) error {
			abiJSON, err := readABI(cctx)
			if err != nil {
				return err
			}
			b := bindings.New(lggr)
			decoded, err := b.DecodeEvent(cctx.Args().First(), abiJSON, cctx.StringSlice("event")...)
			if err != nil {
				return err
			}
			if decoded == nil {
				return fmt.Errorf("no declared event matches the body")
			}
			return printJSON(decoded)
		},
	}
}

func decodeTransactionCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "decode-transaction",
		Usage:     "Interpret a raw transaction JSON record against the contract ABI",
		ArgsUsage: "TRANSACTION_JSON_FILE",
		Flags: []cli.Flag{
			abiFlag,
			&cli.StringSliceFlag{
				Name:  "method",
				Usage: "restrict matching to the named methods",
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "extract declared events instead of the method invocation",
			},
		},
		Action: func(cctx *cli.Context) error {
			abiJSON, err := readABI(cctx)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(cctx.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read transaction: %w", err)
			}
			var tx bindings.TransactionRecord
			if err := json.Unmarshal(raw, &tx); err != nil {
				return fmt.Errorf("failed to parse transaction: %w", err)
			}

			b := bindings.New(lggr)
			if cctx.Bool("events") {
				events, err := b.DecodeTransactionEvents(&tx, abiJSON)
				if err != nil {
					return err
				}
				return printJSON(events)
			}
			decoded, err := b.DecodeTransaction(&tx, abiJSON, cctx.StringSlice("method")...)
			if err != nil {
				return err
			}
			if decoded == nil {
				return fmt.Errorf("no declared method matches the transaction")
			}
			return printJSON(decoded)
		},
	}
}

var selectorCmd = &cli.Command{
	Name:  "selector",
	Usage: "Print the computed selectors of every declared function and event",
	Flags: []cli.Flag{abiFlag},
	Action: func(cctx *cli.Context) error {
		abiJSON, err := os.ReadFile(cctx.String("abi"))
		if err != nil {
			return fmt.Errorf("failed to read ABI: %w", err)
		}
		contract, err := abi.ParseContract(abiJSON)
		if err != nil {
			return err
		}

		type functionIDs struct {
			Name     string `json:"name"`
			InputID  string `json:"inputId"`
			OutputID string `json:"outputId"`
		}
		type eventIDs struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		}
		out := struct {
			Functions []functionIDs `json:"functions"`
			Events    []eventIDs    `json:"events"`
		}{}
		for _, f := range contract.Functions() {
			out.Functions = append(out.Functions, functionIDs{
				Name:     f.Name,
				InputID:  fmt.Sprintf("0x%08x", f.InputID),
				OutputID: fmt.Sprintf("0x%08x", f.OutputID),
			})
		}
		for _, e := range contract.Events() {
			out.Events = append(out.Events, eventIDs{
				Name: e.Name,
				ID:   fmt.Sprintf("0x%08x", e.ID),
			})
		}
		return printJSON(out)
	},
}

func packCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Pack named values into a serialized cell",
		ArgsUsage: "VALUES_JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "params",
				Usage:    "path to the parameter list descriptor",
				Required: true,
			},
		},
		Action: func(cctx *cli.Context) error {
			params, err := readParams(cctx.String("params"))
			if err != nil {
				return err
			}
			var vals map[string]any
			if err := json.Unmarshal([]byte(cctx.Args().First()), &vals); err != nil {
				return fmt.Errorf("failed to parse values: %w", err)
			}
			b := bindings.New(lggr)
			boc, err := b.PackIntoCell(params, vals)
			if err != nil {
				return err
			}
			fmt.Println(boc)
			return nil
		},
	}
}

func unpackCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "Unpack a serialized cell into named values",
		ArgsUsage: "CELL_BASE64",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "params",
				Usage:    "path to the parameter list descriptor",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "partial",
				Usage: "allow trailing unparsed data in the cell",
			},
		},
		Action: func(cctx *cli.Context) error {
			params, err := readParams(cctx.String("params"))
			if err != nil {
				return err
			}
			b := bindings.New(lggr)
			vals, err := b.UnpackFromCell(params, cctx.Args().First(), cctx.Bool("partial"))
			if err != nil {
				return err
			}
			return printJSON(vals)
		},
	}
}

func verifySignatureCmd(lggr logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "verify-signature",
		Usage:     "Verify an ed25519 signature over a data hash",
		ArgsUsage: "PUBKEY_HEX DATA_HASH SIGNATURE",
		Action: func(cctx *cli.Context) error {
			if cctx.NArg() != 3 {
				return fmt.Errorf("expected PUBKEY_HEX DATA_HASH SIGNATURE")
			}
			b := bindings.New(lggr)
			ok, err := b.VerifySignature(cctx.Args().Get(0), cctx.Args().Get(1), cctx.Args().Get(2))
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		},
	}
}

func readParams(path string) ([]abi.ParamDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params: %w", err)
	}
	var params []abi.ParamDescriptor
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	return params, nil
}
