package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/config"
	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/Prompt-Haus/OpenVTO/internal/media"
	"github.com/Prompt-Haus/OpenVTO/internal/orchestrator"
	"github.com/Prompt-Haus/OpenVTO/internal/store"
	"github.com/Prompt-Haus/OpenVTO/internal/vto"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// pipelineTimeout bounds one generation chain end to end; a hung remote call
// terminates as failed instead of hanging forever.
const pipelineTimeout = 10 * time.Minute

type app struct {
	cfg       config.Config
	codec     *media.Codec
	client    vto.GenerationClient
	store     *store.Store
	persister *store.BoltPersister
	orch      *orchestrator.Orchestrator
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to parse config")
	}

	a, err := newApp(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise client")
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	switch os.Args[1] {
	case "avatar":
		err = a.cmdAvatar(ctx, os.Args[2:])
	case "tryon":
		err = a.cmdTryOn(ctx, os.Args[2:])
	case "run":
		err = a.cmdRun(ctx, os.Args[2:])
	case "history":
		err = a.cmdHistory(os.Args[2:])
	case "catalog":
		err = a.cmdCatalog(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vto <command> [flags]

commands:
  avatar   generate a studio avatar from a selfie and a posture photo
  tryon    composite garments onto an avatar image, optionally animate
  run      full chain: avatar, try-on, optional video loop
  history  list completed outputs, newest first
  catalog  browse the remote clothing catalog`)
}

func newApp(cfg config.Config) (*app, error) {
	persister, err := store.OpenBoltPersister(cfg.VTODataDir)
	if err != nil {
		return nil, err
	}

	st := store.NewStore(persister)
	state, err := persister.Load()
	if err != nil {
		persister.Close()
		return nil, err
	}
	st.Restore(state)

	codec := media.NewCodec(filepath.Join(cfg.VTODataDir, "scratch"))

	var client vto.GenerationClient
	if cfg.VTOStubMode {
		client = &vto.StubClient{Latency: time.Duration(cfg.StubLatencyMS) * time.Millisecond}
	} else {
		client = vto.NewHTTPClient(vto.ClientConfig{
			BaseURL: cfg.VTOBaseURL,
			APIKey:  cfg.VTOAPIKey,
		}, codec)
	}

	return &app{
		cfg:       cfg,
		codec:     codec,
		client:    client,
		store:     st,
		persister: persister,
		orch:      orchestrator.New(st, client, codec),
	}, nil
}

func (a *app) close() {
	if a.persister != nil {
		a.persister.Close()
	}
}

func (a *app) cmdAvatar(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("avatar", flag.ExitOnError)
	selfiePath := fs.String("selfie", "", "path or URL of the selfie photo")
	posturePath := fs.String("posture", "", "path or URL of the full-body posture photo")
	background := fs.String("background", entity.DefaultBackground, "background style")
	keepClothes := fs.Bool("keep-clothes", false, "keep the clothing from the source photos")
	seed := fs.Int64("seed", 0, "random seed (0 lets the provider choose)")
	out := fs.String("out", "avatar.png", "output file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *selfiePath == "" || *posturePath == "" {
		return fmt.Errorf("avatar: -selfie and -posture are required")
	}

	selfie := a.store.AddPhoto("selfie", *selfiePath)
	posture := a.store.AddPhoto("posture", *posturePath)

	params := entity.AvatarParams{Background: *background, KeepClothes: *keepClothes}
	if *seed != 0 {
		params.Seed = seed
	}

	avatar, err := a.orch.RunAvatar(ctx, selfie.ID, posture.ID, params)
	if err != nil {
		return err
	}
	if err := writeOutput(avatar.OutputURI, *out); err != nil {
		return err
	}
	fmt.Printf("avatar %s completed -> %s\n", avatar.ID, *out)
	return nil
}

func (a *app) cmdTryOn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tryon", flag.ExitOnError)
	avatarPath := fs.String("avatar", "", "path or URL of the avatar image")
	clothes := fs.String("clothes", "", "comma-separated garment image paths")
	video := fs.Bool("video", false, "chain a video loop after the try-on")
	mode := fs.String("mode", entity.DefaultVideoMode, "animation mode (360 or idle)")
	seconds := fs.Float64("seconds", entity.DefaultVideoSeconds, "video duration in seconds")
	seed := fs.Int64("seed", 0, "random seed (0 lets the provider choose)")
	out := fs.String("out", "tryon.png", "output file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *avatarPath == "" {
		return fmt.Errorf("tryon: -avatar is required")
	}
	garmentPaths := splitList(*clothes)
	if len(garmentPaths) == 0 {
		return fmt.Errorf("tryon: -clothes needs at least one garment")
	}

	avatarID, garmentIDs, err := a.seedArtifacts(*avatarPath, garmentPaths)
	if err != nil {
		return err
	}

	tryOnParams := entity.TryOnParams{}
	if *seed != 0 {
		tryOnParams.Seed = seed
	}

	if *video {
		videoParams := entity.VideoLoopParams{Mode: *mode, Seconds: *seconds}
		tryOn, animation, err := a.orch.RunTryOnWithVideo(ctx, avatarID, garmentIDs, tryOnParams, videoParams)
		if err != nil {
			if tryOn.Status == entity.StatusCompleted {
				// Partial success: keep the usable try-on image.
				if writeErr := writeOutput(tryOn.OutputURI, *out); writeErr == nil {
					fmt.Printf("try-on %s completed -> %s (video failed: %v)\n", tryOn.ID, *out, err)
					return nil
				}
			}
			return err
		}
		videoOut := replaceExt(*out, ".mp4")
		if err := writeOutput(animation.OutputURI, videoOut); err != nil {
			return err
		}
		fmt.Printf("video %s completed -> %s\n", animation.ID, videoOut)
		return nil
	}

	tryOn, err := a.orch.RunTryOn(ctx, avatarID, garmentIDs, tryOnParams)
	if err != nil {
		return err
	}
	if err := writeOutput(tryOn.OutputURI, *out); err != nil {
		return err
	}
	fmt.Printf("try-on %s completed -> %s\n", tryOn.ID, *out)
	return nil
}

func (a *app) cmdRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	selfiePath := fs.String("selfie", "", "path or URL of the selfie photo")
	posturePath := fs.String("posture", "", "path or URL of the full-body posture photo")
	clothes := fs.String("clothes", "", "comma-separated garment image paths")
	background := fs.String("background", entity.DefaultBackground, "background style")
	video := fs.Bool("video", false, "chain a video loop after the try-on")
	mode := fs.String("mode", entity.DefaultVideoMode, "animation mode (360 or idle)")
	seconds := fs.Float64("seconds", entity.DefaultVideoSeconds, "video duration in seconds")
	out := fs.String("out", "result.png", "output file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *selfiePath == "" || *posturePath == "" {
		return fmt.Errorf("run: -selfie and -posture are required")
	}
	garmentPaths := splitList(*clothes)
	if len(garmentPaths) == 0 {
		return fmt.Errorf("run: -clothes needs at least one garment")
	}

	selfie := a.store.AddPhoto("selfie", *selfiePath)
	posture := a.store.AddPhoto("posture", *posturePath)
	garmentIDs := make([]string, 0, len(garmentPaths))
	for _, path := range garmentPaths {
		item := a.store.AddClothingItem("cli", filepath.Base(path), path, false)
		garmentIDs = append(garmentIDs, item.ID)
	}

	result, err := a.orch.RunFull(ctx, orchestrator.FullRequest{
		SelfieID:   selfie.ID,
		PostureID:  posture.ID,
		GarmentIDs: garmentIDs,
		Avatar:     entity.AvatarParams{Background: *background},
		WithVideo:  *video,
		Video:      entity.VideoLoopParams{Mode: *mode, Seconds: *seconds},
	})
	if err != nil {
		return err
	}

	if result.Animation != nil {
		videoOut := replaceExt(*out, ".mp4")
		if err := writeOutput(result.Animation.OutputURI, videoOut); err != nil {
			return err
		}
		fmt.Printf("full chain completed in %.0fms -> %s\n", result.LatencyMS, videoOut)
		return nil
	}
	if err := writeOutput(result.TryOn.OutputURI, *out); err != nil {
		return err
	}
	fmt.Printf("full chain completed in %.0fms -> %s\n", result.LatencyMS, *out)
	return nil
}

func (a *app) cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	items := a.store.History()
	if len(items) == 0 {
		fmt.Println("history is empty")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %-5s  %s\n", item.CreatedAt.Format(time.RFC3339), item.Kind, item.ID)
	}
	return nil
}

func (a *app) cmdCatalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	category := fs.String("category", "", "list items of one category instead of the category list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	httpClient, ok := a.client.(*vto.HTTPClient)
	if !ok {
		return fmt.Errorf("catalog browsing needs a remote relay (stub mode is enabled)")
	}

	if *category == "" {
		categories, err := httpClient.ListClothingCategories(ctx)
		if err != nil {
			return err
		}
		for _, name := range categories {
			fmt.Println(name)
		}
		return nil
	}

	listing, err := httpClient.ListClothingItems(ctx, *category)
	if err != nil {
		return err
	}
	fmt.Printf("category %s: %d items, views %s\n", listing.Category, len(listing.Indices), strings.Join(listing.Views, ","))
	for _, index := range listing.Indices {
		fmt.Printf("  item %d\n", index)
	}
	return nil
}

// seedArtifacts registers a completed avatar and the garments so the
// orchestrator preconditions hold for a single CLI invocation.
func (a *app) seedArtifacts(avatarPath string, garmentPaths []string) (string, []string, error) {
	avatar := a.store.CreateAvatar("", "")
	if err := a.store.UpdateAvatarStatus(avatar.ID, entity.StatusCompleted, entity.WithOutput(avatarPath)); err != nil {
		return "", nil, err
	}

	garmentIDs := make([]string, 0, len(garmentPaths))
	for _, path := range garmentPaths {
		item := a.store.AddClothingItem("cli", filepath.Base(path), path, false)
		garmentIDs = append(garmentIDs, item.ID)
	}
	return avatar.ID, garmentIDs, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// writeOutput decodes a display locator and writes the payload to disk.
func writeOutput(uri, path string) error {
	data, _, err := media.DecodePayload(uri)
	if err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
