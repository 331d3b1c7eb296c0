// Command reel is a terminal client for browsing the meme feed with the
// smile-verified like flow, useful for exercising a running API server
// end to end without the web frontend.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hehememe/internal/heheclient"
	"hehememe/internal/reel"
)

func main() {
	host := flag.String("host", "http://localhost:8480", "API server base URL")
	address := flag.String("address", "", "wallet address to authenticate with")
	username := flag.String("username", "", "username for first-time signup")
	classifierURL := flag.String("classifier", "", "expression inference endpoint (empty disables verification)")
	framesDir := flag.String("frames", "", "directory of image files used as camera frames")
	pageSize := flag.Int("page", 10, "feed page size")
	flag.Parse()

	if *address == "" {
		log.Fatal("-address is required")
	}

	ctx := context.Background()
	api := heheclient.New(*host)

	auth, err := api.Authenticate(ctx, *address, *username)
	if errors.Is(err, heheclient.ErrNeedsUsername) {
		log.Fatal("❌ New address: pass -username to sign up")
	}
	if err != nil {
		log.Fatalf("❌ Authentication failed: %v", err)
	}
	log.Printf("✅ Logged in as %s", auth.User.Username)

	var camera reel.Camera
	var classifier reel.Classifier
	if *framesDir != "" {
		camera, err = newDirCamera(*framesDir)
		if err != nil {
			log.Fatalf("❌ Camera setup failed: %v", err)
		}
	}
	if *classifierURL != "" {
		classifier = reel.NewHTTPClassifier(*classifierURL)
	}
	if camera == nil || classifier == nil {
		log.Println("⚠️  Verification disabled: browsing only")
	}

	offset := 0
	page, err := api.Feed(ctx, *pageSize, offset)
	if err != nil {
		log.Fatalf("❌ Feed fetch failed: %v", err)
	}
	if len(page.Posts) == 0 {
		log.Fatal("Feed is empty, nothing to show")
	}
	offset += len(page.Posts)

	var nav *reel.Navigator
	nav = reel.NewNavigator(camera, classifier, api, reel.WithNearEnd(func() {
		go func() {
			next, err := api.Feed(ctx, *pageSize, offset)
			if err != nil {
				log.Printf("⚠️  Fetching more posts failed: %v", err)
				return
			}
			offset += len(next.Posts)
			nav.Append(next.Posts)
		}()
	}))
	defer func() { _ = nav.Close() }()

	nav.SetPosts(ctx, page.Posts)
	showCurrent(nav)

	streamCtx, stopStream := context.WithCancel(ctx)
	defer stopStream()
	if stream, err := api.SubscribeFeed(streamCtx); err != nil {
		log.Printf("⚠️  Feed event stream unavailable: %v", err)
	} else {
		go func() {
			for event := range stream.Events() {
				log.Printf("🔔 %s: %s", event.Type, event.Payload)
			}
		}()
	}

	fmt.Println("Commands: n(ext), p(rev), r(etry), s(tatus), q(uit)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "n":
			if nav.Next(ctx) {
				showCurrent(nav)
			} else {
				fmt.Println("(end of feed)")
			}
		case "p":
			if nav.Prev(ctx) {
				showCurrent(nav)
			} else {
				fmt.Println("(start of feed)")
			}
		case "r":
			nav.Restart(ctx)
			fmt.Println("Session re-armed")
		case "s":
			sess := nav.Session()
			fmt.Printf("Session: post=%d state=%s elapsed=%ds gate=%v mintable=%v\n",
				sess.PostID, sess.State, sess.Elapsed, nav.GateOpen(), nav.CanMint())
		case "q":
			return
		}
	}
}

func showCurrent(nav *reel.Navigator) {
	post := nav.Current()
	if post == nil {
		return
	}
	liked := " "
	if post.HasLiked {
		liked = "❤"
	}
	fmt.Printf("[%d/%d] #%d %s %q by %s (%d likes)\n",
		nav.Index()+1, nav.Len(), post.ID, liked, post.Caption, post.User.Username, post.LikesCount)
}

// dirCamera cycles through image files in a directory, standing in for a
// live webcam feed.
type dirCamera struct {
	mu    sync.Mutex
	files []string
	next  int
}

func newDirCamera(dir string) (*dirCamera, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	return &dirCamera{files: files}, nil
}

func (c *dirCamera) Capture(_ context.Context) (reel.Frame, error) {
	c.mu.Lock()
	path := c.files[c.next%len(c.files)]
	c.next++
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return reel.Frame(data), nil
}

func (c *dirCamera) Close() error { return nil }
