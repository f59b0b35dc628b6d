// Command harness-run binds an action package and invokes it once.
//
// The package is either a tar.gz archive or a plain source file; the result
// envelope is written to stdout in the requested content type.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/faasline/harness/config"
	"github.com/faasline/harness/observability"
	"github.com/faasline/harness/protocol"
	"github.com/faasline/harness/runtime"
	"github.com/faasline/harness/stage"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a config file (optional)")
		archive    = flag.String("archive", "", "Path to a tar.gz action package")
		source     = flag.String("source", "", "Path to a source file with the action code")
		handler    = flag.String("main", "main", "Handler specifier naming the entry point")
		input      = flag.String("input", "{}", "Invocation input as JSON")
		format     = flag.String("format", "application/json", "Output content type (application/json or application/cbor)")
	)
	flag.Parse()

	if (*archive == "") == (*source == "") {
		fmt.Fprintln(os.Stderr, "Usage: harness-run -archive <pkg.tgz> [-main name] [-input json]")
		fmt.Fprintln(os.Stderr, "       harness-run -source <action.js> [-main name] [-input json]")
		os.Exit(1)
	}

	if err := run(*configPath, *archive, *source, *handler, *input, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, archive, source, handler, input, format string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	msg := protocol.InitMessage{Main: handler}
	if archive != "" {
		raw, err := os.ReadFile(archive)
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		msg.Binary = true
		msg.Code = base64.StdEncoding.EncodeToString(raw)
	} else {
		raw, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		msg.Code = string(raw)
	}

	stager := stage.New(
		stage.WithRoot(cfg.Stage.Root),
		stage.WithTarBinary(cfg.Stage.TarBinary),
		stage.WithLogger(log),
	)
	h := runtime.New(runtime.WithLogger(log), runtime.WithStager(stager))
	defer func() { _ = h.Close(ctx) }()

	if err := h.Init(ctx, msg); err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal([]byte(input), &value); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	envelope, err := h.Run(ctx, value)
	if err != nil {
		return err
	}

	codec, err := outputCodec(format)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return err
	}
	if codec.ContentType() == "application/json" {
		fmt.Println()
	}
	return nil
}

func outputCodec(contentType string) (protocol.Codec, error) {
	registry := protocol.NewRegistry()
	if c, err := protocol.CBOR(); err == nil {
		registry.Register(c)
	}
	codec := registry.Get(contentType)
	if codec == nil {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
	return codec, nil
}
