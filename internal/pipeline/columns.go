package pipeline

// Upload column names. These follow the store's bookkeeping sheets, so the
// Indonesian headers are the data contract, not a display concern.
const (
	ColWeek         = "MINGGU"
	ColDate         = "TANGGAL"
	ColCategory     = "KATEGORI"
	ColItemName     = "NAMA BARANG"
	ColUnit         = "SATUAN"
	ColOpeningStock = "STOK AWAL"
	ColQtySold      = "JUMLAH TERJUAL"
	ColClosingStock = "STOK AKHIR"
)

// DateLayout is the fixed textual date format of the TANGGAL column.
const DateLayout = "02/01/2006"
