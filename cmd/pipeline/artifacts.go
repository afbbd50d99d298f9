package pipeline

import (
	"archive/zip"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/provenance-io/p8e-publisher/config"
	"github.com/provenance-io/p8e-publisher/hashmarker"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/specs"
)

// Check verifies that both artifacts exist and are readable archives and
// that the contract manifest declares at least one class.
func Check(cfg *config.Config, log *slog.Logger) error {
	var errs []error
	for _, src := range []config.ArtifactSource{cfg.ContractArtifact, cfg.SchemaArtifact} {
		entries, err := checkArchive(src.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("artifact %s: %w", src.Name, err))
			continue
		}
		log.Info("Artifact ok", slog.String("artifact", src.Name), slog.String("path", src.Path), slog.Int("entries", entries))
	}

	if cfg.ContractArtifact.Manifest == "" {
		errs = append(errs, fmt.Errorf("artifact %s: %w: no manifest configured", cfg.ContractArtifact.Name, interfaces.ErrEmptyContractSet))
	} else {
		classes, err := specs.LoadManifest(cfg.ContractArtifact.Manifest)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("artifact %s: %w", cfg.ContractArtifact.Name, err))
		case len(classes) == 0:
			errs = append(errs, fmt.Errorf("artifact %s: %w", cfg.ContractArtifact.Name, interfaces.ErrEmptyContractSet))
		default:
			log.Info("Contract manifest ok", slog.Int("classes", len(classes)))
		}
	}

	if cfg.SchemaArtifact.Manifest != "" {
		if _, err := specs.LoadManifest(cfg.SchemaArtifact.Manifest); err != nil {
			errs = append(errs, fmt.Errorf("artifact %s: %w", cfg.SchemaArtifact.Name, err))
		}
	}

	return errors.Join(errs...)
}

func checkArchive(path string) (int, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	if len(r.File) == 0 {
		return 0, errors.New("archive is empty")
	}
	return len(r.File), nil
}

// WriteMarkers writes the hash marker of each artifact whose directory is configured.
func WriteMarkers(cfg *config.Config, bundle interfaces.ArtifactBundle, now time.Time, log *slog.Logger) error {
	targets := []struct {
		dir      string
		pkg      string
		artifact interfaces.Artifact
	}{
		{cfg.HashMarker.ContractDir, cfg.HashMarker.ContractPackage, bundle.Code},
		{cfg.HashMarker.SchemaDir, cfg.HashMarker.SchemaPackage, bundle.Schema},
	}

	for _, target := range targets {
		if target.dir == "" {
			continue
		}
		marker, err := hashmarker.ForArtifact(target.pkg, target.artifact, now)
		if err != nil {
			return err
		}
		path, err := hashmarker.Write(target.dir, marker)
		if err != nil {
			return err
		}
		log.Info("Wrote hash marker", slog.String("artifact", target.artifact.Name), slog.String("path", path), slog.String("hash", marker.Hash))
	}
	return nil
}

// CleanMarkers removes the configured hash markers.
func CleanMarkers(cfg *config.Config, log *slog.Logger) error {
	for _, dir := range []string{cfg.HashMarker.ContractDir, cfg.HashMarker.SchemaDir} {
		if dir == "" {
			continue
		}
		if err := hashmarker.Clean(dir); err != nil {
			return err
		}
		log.Info("Removed hash marker", slog.String("path", hashmarker.Path(dir)))
	}
	return nil
}
