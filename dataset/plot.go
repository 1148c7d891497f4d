package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/pkg/log"
)

// HistogramBins はヒストグラムのビン数
const HistogramBins = 30

// PlotFeatureHistograms は各特徴量（スケーリング前）のヒストグラムを
// dir/<feature>_hist.png に保存し、作成したファイルのパスを返す
func (d *NAMDataset) PlotFeatureHistograms(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create plot dir %s", dir)
	}

	logger := log.GetLoggerWithName("dataset")
	paths := make([]string, 0, d.NumFeatures())
	for j, name := range d.featureNames {
		values := make(plotter.Values, d.Len())
		mat.Col(values, j, d.raw)

		p := plot.New()
		p.Title.Text = name
		p.X.Label.Text = name
		p.Y.Label.Text = "count"

		h, err := plotter.NewHist(values, HistogramBins)
		if err != nil {
			return paths, errors.Wrapf(err, "failed to build histogram for %s", name)
		}
		p.Add(h)

		path := filepath.Join(dir, fileSafe(name)+"_hist.png")
		if err := p.Save(4*vg.Inch, 3*vg.Inch, path); err != nil {
			return paths, errors.Wrapf(err, "failed to save %s", path)
		}
		paths = append(paths, path)
		logger.Debug("Saved feature histogram", log.FileKey, path)
	}
	return paths, nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
