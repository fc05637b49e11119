package source

import (
	"io/ioutil"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway/migration"
	"github.com/rmazhuga/stairway/sqladapter"
)

const DefaultFolder = "./migrations"

const (
	upFileSuffix   = ".up.sql"
	downFileSuffix = ".down.sql"
)

var (
	ErrNotAMigrationFile = errors.New("not a migration file")
	ErrNoUpFile          = errors.New("migration has no up file")
)

var keyPattern = regexp.MustCompile(`^(?P<version>\d+)(?:_(?P<name>[\w-]+))?$`)

// Local loads migrations from a folder of SQL files named
// <version>_<name>.up.sql, with an optional matching .down.sql file.
// A migration without a down file is irreversible.
type Local struct {
	folder string
}

func NewLocal(folder string) *Local {
	if folder == "" {
		folder = DefaultFolder
	}

	return &Local{folder: folder}
}

// Load reads the folder and returns the migrations sorted ascending by
// version, ready to be registered.
func (s *Local) Load() (migration.Migrations, error) {
	files, err := ioutil.ReadDir(s.folder)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read migrations from folder [%s]", s.folder)
	}

	type pair struct {
		up   string
		down string
	}

	pairs := make(map[string]*pair)

	for i := range files {
		if files[i].IsDir() {
			continue
		}

		name := files[i].Name()

		var key string
		var down bool
		switch {
		case strings.HasSuffix(name, upFileSuffix):
			key = strings.TrimSuffix(name, upFileSuffix)
		case strings.HasSuffix(name, downFileSuffix):
			key = strings.TrimSuffix(name, downFileSuffix)
			down = true
		default:
			continue
		}

		if !keyPattern.MatchString(key) {
			return nil, errors.Wrapf(ErrNotAMigrationFile, "[%s]", name)
		}

		p, ok := pairs[key]
		if !ok {
			p = &pair{}
			pairs[key] = p
		}

		if down {
			p.down = name
		} else {
			p.up = name
		}
	}

	var result migration.Migrations

	for key, p := range pairs {
		if p.up == "" {
			return nil, errors.Wrapf(ErrNoUpFile, "[%s]", key)
		}

		m, err := s.readOne(key, p.up, p.down)
		if err != nil {
			return nil, err
		}

		result = append(result, m)
	}

	sort.Sort(result)

	return result, nil
}

func (s *Local) readOne(key, upFile, downFile string) (*sqladapter.SQLMigration, error) {
	version, description, err := parseKey(key)
	if err != nil {
		return nil, err
	}

	upContents, err := ioutil.ReadFile(filepath.Join(s.folder, upFile))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read migration file [%s]", upFile)
	}

	m := sqladapter.NewSQLMigration(version, description).WithUp(string(upContents))

	if downFile != "" {
		downContents, err := ioutil.ReadFile(filepath.Join(s.folder, downFile))
		if err != nil {
			return nil, errors.Wrapf(err, "could not read migration file [%s]", downFile)
		}

		m.WithDown(string(downContents))
	}

	return m, nil
}

func parseKey(key string) (migration.Version, string, error) {
	matches := keyPattern.FindStringSubmatch(key)
	if len(matches) < 2 {
		return migration.NoVersion, "", errors.Wrapf(ErrNotAMigrationFile, "[%s]", key)
	}

	v, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return migration.NoVersion, "", errors.Wrapf(ErrNotAMigrationFile, "[%s]", key)
	}

	description := strings.Replace(matches[2], "_", " ", -1)

	return migration.Version(v), description, nil
}
