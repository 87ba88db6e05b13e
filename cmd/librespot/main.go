package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"

	"spotify-ap/audio"
	"spotify-ap/config"
	"spotify-ap/credentials"
	"spotify-ap/librespot"
	"spotify-ap/login5"
)

type commonFlags struct {
	config   *string
	username *string
	password *string
	stored   *string
	blob     *string
	verbose  *bool
}

func registerCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config:   fs.String("config", "", "YAML config file"),
		username: fs.String("u", "", "username (default $"+config.EnvUsername+")"),
		password: fs.String("p", "", "password (default $"+config.EnvPassword+")"),
		stored:   fs.String("stored", "", "base64 reusable credential from a previous login"),
		blob:     fs.String("blob", "", "base64 credentials blob handed out by zeroconf"),
		verbose:  fs.Bool("v", false, "log protocol events to stderr"),
	}
}

func (f commonFlags) load() (config.Config, credentials.Credentials, *log.Logger, error) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		return config.Config{}, credentials.Credentials{}, nil, err
	}
	if *f.username != "" {
		cfg.Username = *f.username
	}
	if *f.password != "" {
		cfg.Password = *f.password
	}

	logger := log.New(io.Discard, "", 0)
	if *f.verbose {
		logger = log.New(os.Stderr, "[librespot] ", log.LstdFlags)
	}

	var creds credentials.Credentials
	switch {
	case *f.blob != "":
		creds, err = credentials.DecodeBlob(cfg.Username, cfg.DeviceID, *f.blob)
	case *f.stored != "":
		var data []byte
		data, err = base64.StdEncoding.DecodeString(*f.stored)
		creds = credentials.Stored(cfg.Username, data)
	default:
		creds = credentials.UserPass(cfg.Username, cfg.Password)
	}
	if err == nil {
		err = creds.Validate()
	}
	return cfg, creds, logger, err
}

func main() {
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginFlags := registerCommon(loginCmd)

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenFlags := registerCommon(tokenCmd)

	downloadCmd := flag.NewFlagSet("download", flag.ExitOnError)
	downloadFlags := registerCommon(downloadCmd)
	downloadOut := downloadCmd.String("o", "", "output file (default: <id>.ogg)")
	downloadQuality := downloadCmd.Int("quality", -1, "max quality 0-2 (default: by account type)")
	downloadLogin5 := downloadCmd.Bool("login5", false, "authenticate API calls with login5 tokens")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "login":
		_ = loginCmd.Parse(os.Args[2:])
		err = runLogin(ctx, loginFlags)
	case "token":
		_ = tokenCmd.Parse(os.Args[2:])
		err = runToken(ctx, tokenFlags)
	case "download":
		_ = downloadCmd.Parse(os.Args[2:])
		args := downloadCmd.Args()
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: librespot download [flags] <spotify uri or url>")
			os.Exit(1)
		}
		err = runDownload(ctx, downloadFlags, args[0], *downloadOut, *downloadQuality, *downloadLogin5)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: librespot <command> [flags]

commands:
  login      authenticate with the access point and print the reusable credential
  token      obtain an access token from login5
  download   download and decrypt a track or episode`)
}

func runLogin(ctx context.Context, f commonFlags) error {
	cfg, creds, logger, err := f.load()
	if err != nil {
		return err
	}
	c, err := librespot.Connect(ctx, cfg, creds, librespot.WithLogger(logger))
	if err != nil {
		return err
	}
	defer c.Close()

	welcome := c.Welcome()
	fmt.Printf("username:   %s\n", welcome.GetCanonicalUsername())
	fmt.Printf("country:    %s\n", c.Session().CountryCode())
	fmt.Printf("premium:    %t\n", c.IsPremium())
	fmt.Printf("device id:  %s\n", cfg.DeviceID)
	fmt.Printf("credential: %s\n", base64.StdEncoding.EncodeToString(welcome.GetReusableAuthCredentials()))
	return nil
}

func runToken(ctx context.Context, f commonFlags) error {
	cfg, creds, logger, err := f.load()
	if err != nil {
		return err
	}
	client := login5.New(cfg.ClientID, cfg.DeviceID, login5.WithLogger(logger))
	res, err := client.Login(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Printf("username:     %s\n", res.Username)
	fmt.Printf("access token: %s\n", res.AccessToken)
	fmt.Printf("expires at:   %s\n", res.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("credential:   %s\n", base64.StdEncoding.EncodeToString(res.StoredCredential))
	return nil
}

func runDownload(ctx context.Context, f commonFlags, uri, out string, quality int, useLogin5 bool) error {
	cfg, creds, logger, err := f.load()
	if err != nil {
		return err
	}
	if quality >= 0 {
		cfg.MaxQuality = &quality
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	_, id, err := librespot.ParseURI(uri)
	if err != nil {
		return err
	}

	opts := []librespot.Option{librespot.WithLogger(logger)}
	if useLogin5 {
		opts = append(opts, librespot.WithLogin5())
	}
	c, err := librespot.Connect(ctx, cfg, creds, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	stream, err := c.StreamURI(ctx, uri)
	if err != nil {
		return err
	}
	defer stream.Close()

	if out == "" {
		out = id + extension(audio.Codec(cfg.Codec))
	}
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()

	size := stream.Size
	if size == 0 {
		size = -1
	}
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(stream.Format),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
	if _, err := io.Copy(io.MultiWriter(file, bar), stream); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	_ = bar.Finish()
	fmt.Fprintf(os.Stderr, "saved %s\n", out)
	return file.Close()
}

func extension(codec audio.Codec) string {
	switch codec {
	case audio.CodecMP3:
		return ".mp3"
	case audio.CodecAAC:
		return ".m4a"
	default:
		return ".ogg"
	}
}
