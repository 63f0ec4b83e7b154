package main

import (
	"fmt"

	"github.com/InVisionApp/tabular"
	"github.com/jadolg/AudioStash"
)

func printSegments(result *audiostash.Result) {
	tab := tabular.New()
	tab.Col("idx", "#", 4)
	tab.Col("time", "Time", 18)
	tab.Col("spk", "Speaker", 11)
	tab.Col("url", "Stored", 9)
	tab.Col("text", "Transcript", 40)

	format := tab.Print("idx", "time", "spk", "url", "text")
	for i, segment := range result.Segments {
		stored := "no"
		if i < len(result.SegmentURLs) && audiostash.IsUploaded(result.SegmentURLs[i]) {
			stored = "yes"
		}
		fmt.Printf(format, i+1,
			fmt.Sprintf("%.1fs - %.1fs", segment.Start, segment.End),
			segment.SpeakerID, stored, segment.Transcript)
	}
}

func printResult(result *audiostash.Result) {
	uploaded := 0
	for _, url := range result.SegmentURLs {
		if audiostash.IsUploaded(url) {
			uploaded++
		}
	}

	fmt.Println()
	fmt.Printf("Original file:   %s\n", result.OriginalFile)
	fmt.Printf("Processing time: %.2f seconds\n", result.ProcessingTime.Seconds())
	fmt.Printf("Segments:        %d\n", len(result.Segments))
	fmt.Printf("Files uploaded:  %d\n", uploaded)
	fmt.Println()
	printSegments(result)
	fmt.Println()
	fmt.Println("Full transcript:")
	fmt.Println(result.FullTranscript)
}
