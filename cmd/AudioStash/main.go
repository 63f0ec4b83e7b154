package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/jadolg/AudioStash"
	"github.com/kyokomi/emoji"
	log "github.com/sirupsen/logrus"
)

func startSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	if err := s.Color("magenta"); err != nil {
		log.Debug(err)
	}
	s.Start()
	return s
}

func stopSpinner(s *spinner.Spinner, message string) {
	s.Stop()
	emoji.Println(":ok: " + message)
}

func failSpinner(s *spinner.Spinner, message string) {
	s.Stop()
	emoji.Println(":x: " + message)
}

func main() {
	file := flag.String("f", "", "Audio file to upload or process")
	name := flag.String("n", "", "Name of the object in storage (defaults to the file name)")
	sanitize := flag.String("sanitize", "", "Print the storage key for a name and exit")
	runPipeline := flag.Bool("pipeline", false, "Run the full diarization, transcription and upload pipeline on -f")
	query := flag.String("q", "tiếng Việt", "Transcript search run after the pipeline")
	verify := flag.Bool("verify", false, "Download the uploaded object back and compare sizes")
	bucket := flag.String("bucket", lookupEnvOr("AUDIOSTASH_BUCKET", audiostash.DefaultBucket), "Storage bucket")
	segmentSeconds := flag.Float64("segment", lookupEnvFloat("AUDIOSTASH_SEGMENT_SECONDS", audiostash.DefaultSegmentSeconds), "Length of a diarization segment in seconds")
	workDir := flag.String("workdir", lookupEnvOr("AUDIOSTASH_WORK_DIR", os.TempDir()), "Directory for temporary segment files")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *sanitize != "" {
		fmt.Println(audiostash.SanitizeKey(*sanitize))
		return
	}

	if *file == "" {
		fmt.Println("You must specify an audio file.\nUse -h to see application details.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, *file, *name, *runPipeline, *query, *bucket, *verify, audiostash.PipelineConfig{
		SegmentSeconds: *segmentSeconds,
		WorkDir:        *workDir,
	})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, file, name string, runPipeline bool, query, bucket string, verify bool, config audiostash.PipelineConfig) int {
	if runPipeline {
		return pipelineCommand(ctx, file, query, bucket, config)
	}
	if name == "" {
		name = filepath.Base(file)
	}
	return uploadCommand(ctx, file, name, bucket, verify)
}

func uploadCommand(ctx context.Context, file, name, bucket string, verify bool) int {
	creds, err := audiostash.CredentialsFromEnv()
	if err != nil {
		fmt.Println(err)
		return 1
	}

	key := audiostash.SanitizeKey(name)
	if key == "" {
		fmt.Printf("%q does not contain any usable characters, use -n to pick a name\n", name)
		return 1
	}
	fmt.Printf("Uploading %s (%s) as %s\n", file, humanize.Bytes(uint64(audiostash.GetFileSize(file))), key)

	uploader := audiostash.NewUploader(audiostash.NewStorageClient(creds.URL, creds.Key), bucket)

	s := startSpinner("Checking bucket " + bucket)
	if err := uploader.EnsureBucket(ctx); err != nil {
		failSpinner(s, err.Error())
		return 1
	}
	stopSpinner(s, "Bucket ready")

	s = startSpinner("Uploading")
	publicURL, err := uploader.UploadFile(ctx, file, key)
	if err != nil {
		failSpinner(s, err.Error())
		return 1
	}
	stopSpinner(s, "Uploaded: "+publicURL)

	if verify {
		if err := verifyUpload(ctx, publicURL, file); err != nil {
			emoji.Println(":x: Verification failed: " + err.Error())
			return 1
		}
		emoji.Println(":ok: Verified remote copy")
	}
	return 0
}

func pipelineCommand(ctx context.Context, file, query, bucket string, config audiostash.PipelineConfig) int {
	var uploader audiostash.FileUploader
	if creds, err := audiostash.CredentialsFromEnv(); err == nil {
		uploader = audiostash.NewUploader(audiostash.NewStorageClient(creds.URL, creds.Key), bucket)
	} else {
		fmt.Println("No storage credentials found, uploads will be simulated")
	}

	s := startSpinner("Processing " + filepath.Base(file))
	result, err := audiostash.NewPipeline(config, uploader).Process(ctx, file)
	if err != nil {
		failSpinner(s, "Pipeline failed: "+err.Error())
		return 1
	}
	stopSpinner(s, "Pipeline completed")

	printResult(result)

	if len(result.Segments) > 0 && query != "" {
		matches := result.Search(query)
		fmt.Println()
		fmt.Printf("Search '%s': %d matching segments\n", query, len(matches))
		for _, m := range matches {
			fmt.Printf("  [%.1fs] %s: %s\n", m.Start, m.SpeakerID, m.Transcript)
		}
	}
	return 0
}

func lookupEnvOr(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func lookupEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
