package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/nam/pkg/errors"
)

// チェックポイントのフォーマット識別子とバージョン
const (
	CheckpointFormat  = "nam-checkpoint"
	CheckpointVersion = 1
)

// Header はチェックポイントの先頭に書かれるメタデータ
type Header struct {
	Format    string
	Version   int
	ModelType string
	CreatedAt time.Time
	Metadata  map[string]string
}

// NewHeader は現在時刻のHeaderを作成する
func NewHeader(modelType string, metadata map[string]string) Header {
	return Header{
		Format:    CheckpointFormat,
		Version:   CheckpointVersion,
		ModelType: modelType,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// SaveCheckpoint はHeaderとstateをgobでファイルに保存する。
// 一時ファイルに書いてからリネームするため、途中で失敗しても既存のファイルは壊れない。
//
// 使用例:
//
//	err := model.SaveCheckpoint(cfg.ModelPath, model.NewHeader("NAM", nil), nam.StateDict())
func SaveCheckpoint(path string, header Header, state interface{}) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create checkpoint file")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteCheckpoint(tmp, header, state); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close checkpoint file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "failed to move checkpoint into place")
	}
	return nil
}

// LoadCheckpoint はファイルからチェックポイントを読み込みstateに復元する。
// modelTypeが空でなければHeaderのモデル種別と一致しなければならない。
func LoadCheckpoint(path, modelType string, state interface{}) (Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return Header{}, errors.Wrap(err, "failed to open checkpoint")
	}
	defer file.Close()
	return ReadCheckpoint(file, modelType, state)
}

// WriteCheckpoint はio.Writerにチェックポイントを書き込む
func WriteCheckpoint(w io.Writer, header Header, state interface{}) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(header); err != nil {
		return errors.Wrap(err, "failed to encode checkpoint header")
	}
	if err := enc.Encode(state); err != nil {
		return errors.Wrap(err, "failed to encode checkpoint state")
	}
	return nil
}

// ReadCheckpoint はio.Readerからチェックポイントを読み込む
func ReadCheckpoint(r io.Reader, modelType string, state interface{}) (Header, error) {
	dec := gob.NewDecoder(r)
	var header Header
	if err := dec.Decode(&header); err != nil {
		return Header{}, errors.Wrap(err, "failed to decode checkpoint header")
	}
	if header.Format != CheckpointFormat {
		return header, errors.NewValueError("ReadCheckpoint", "not a checkpoint file (format "+header.Format+")")
	}
	if header.Version > CheckpointVersion {
		return header, errors.Newf("checkpoint version %d is newer than supported version %d", header.Version, CheckpointVersion)
	}
	if modelType != "" && header.ModelType != modelType {
		return header, errors.NewValueError("ReadCheckpoint",
			"checkpoint holds a "+header.ModelType+" model, expected "+modelType)
	}
	if err := dec.Decode(state); err != nil {
		return header, errors.Wrap(err, "failed to decode checkpoint state")
	}
	return header, nil
}
