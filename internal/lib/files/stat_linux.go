//go:build linux

package files

import (
	"io/fs"
	"os/user"
	"strconv"
	"syscall"
	"time"
)

func ownership(fi fs.FileInfo, st *FileStat) {
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	st.ChangeTime = time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)

	uid := strconv.FormatUint(uint64(sys.Uid), 10)
	st.Owner = uid
	if u, err := user.LookupId(uid); err == nil {
		st.Owner = u.Username
	}

	gid := strconv.FormatUint(uint64(sys.Gid), 10)
	st.Group = gid
	if g, err := user.LookupGroupId(gid); err == nil {
		st.Group = g.Name
	}
}
