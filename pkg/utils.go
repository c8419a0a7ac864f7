package pkg

func genKey(prefix byte, ks ...[]byte) []byte {
	ret := []byte{prefix}
	for _, k := range ks {
		if k == nil {
			continue
		}
		ret = append(ret, k...)
	}
	return ret
}

func entryKey(id string) []byte {
	return genKey(dbEntryPrefix, []byte(id))
}
