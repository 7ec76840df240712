package disk

// PAGE_SIZE is the fixed block size of every page this module reads or
// writes. Every node image, header page, and heap record page is exactly
// this many bytes.
const PAGE_SIZE = 4096

// DEFAULT_PAGE_CAPACITY is how many page-sized slots a freshly created
// database file is pre-sized to hold before the manager doubles it.
const DEFAULT_PAGE_CAPACITY = 16

// INVALID_PAGE_ID marks the absence of a page in contexts where 0 is a
// valid page id (e.g. the header page).
const INVALID_PAGE_ID int64 = -1
