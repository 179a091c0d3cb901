// Command trackplot renders a recorded tracking session's fused path
// and landmark map from the track database to a PNG.
package main

import (
	"flag"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/visual_inertial/internal/tracklog"
)

func main() {
	dbPath := flag.String("db", "./track.db", "path to the track database")
	sessionID := flag.String("session", "", "session id (default: most recent)")
	out := flag.String("out", "track.png", "output PNG path")
	flag.Parse()

	db, err := tracklog.Open(*dbPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	defer db.Close()

	session := *sessionID
	if session == "" {
		sessions, err := db.Sessions()
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatal("no sessions in database")
		}
		session = sessions[0]
		log.Printf("using most recent session %s", session)
	}

	path, err := db.PathPoints(session)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if len(path) == 0 {
		log.Fatal("session has no path points")
	}

	marks, err := db.LatestLandmarks(session)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	p := plot.New()
	p.Title.Text = "Dead-reckoned track " + session
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	pathPts := make(plotter.XYs, len(path))
	for i, pt := range path {
		pathPts[i].X = pt.X
		pathPts[i].Y = pt.Y
	}
	line, err := plotter.NewLine(pathPts)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	line.Width = vg.Points(1.5)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)
	p.Legend.Add("path", line)

	if len(marks) > 0 {
		lmPts := make(plotter.XYs, len(marks))
		for i, lm := range marks {
			lmPts[i].X = lm.X
			lmPts[i].Y = lm.Y
		}
		scatter, err := plotter.NewScatter(lmPts)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		scatter.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
		p.Add(scatter)
		p.Legend.Add("landmarks", scatter)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *out); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("wrote %s (%d path points, %d landmarks)", *out, len(path), len(marks))
}
